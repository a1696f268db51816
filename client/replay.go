package client

// Replay 按顺序重放一个会话的入站记录，效果等同于在线收到这些帧。
// 出站记录跳过；记录在连接中途截断时会话保持连接状态。
func (s *Session) Replay(entries []JournalEntry) {
	for _, e := range entries {
		switch e.Dir {
		case JournalOpen:
			s.Handle(Event{Kind: EventOpened})
		case JournalIn:
			s.Handle(Event{Kind: EventFrame, Raw: []byte(e.Frame)})
		case JournalClose:
			s.Handle(Event{Kind: EventClosed})
		}
	}
}

// ReplayJournal 读取文件或目录，逐个会话重放，返回每个会话的最终视图
func ReplayJournal(path string, onError func(error)) ([]View, error) {
	entries, err := LoadJournal(path)
	if err != nil {
		return nil, err
	}
	var views []View
	for _, group := range GroupBySession(entries) {
		s := NewSession(SessionOptions{OnError: onError})
		s.Replay(group.Entries)
		v := s.View()
		v.Session = group.Session
		views = append(views, v)
	}
	return views, nil
}
