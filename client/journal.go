package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// 帧日志条目方向
const (
	JournalOpen  = "open"
	JournalIn    = "in"
	JournalOut   = "out"
	JournalClose = "close"
)

const defaultJournalPrefix = "frames"

// JournalEntry 帧日志中的一行
type JournalEntry struct {
	Time    time.Time `json:"ts"`
	Session string    `json:"session"`
	Dir     string    `json:"dir"`
	Frame   string    `json:"frame,omitempty"`
	Err     string    `json:"err,omitempty"`
}

// Journal 记录会话收发的每一帧：每个连接一个 zstd 压缩的 JSONL 文件，
// 从 open 条目开始、到 close 条目结束。文件名按打开时间排序：
// <prefix>-<UTC 时间>-<会话 ID 前缀>.jsonl.zst
type Journal struct {
	dir    string
	prefix string

	mu  sync.Mutex
	cur *journalFile
}

// journalFile 当前连接对应的文件及其压缩流
type journalFile struct {
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

func NewJournal(dir, prefix string) *Journal {
	if prefix == "" {
		prefix = defaultJournalPrefix
	}
	return &Journal{dir: dir, prefix: prefix}
}

// Record 追加一条记录；nil Journal 不做任何事
func (j *Journal) Record(e JournalEntry) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// 新连接开新文件；没有 open 的零散条目（如断线后的记录）也单独成文件
	if e.Dir == JournalOpen || j.cur == nil {
		if err := j.startLocked(e); err != nil {
			return err
		}
	}
	if err := j.cur.append(e); err != nil {
		return err
	}
	if e.Dir == JournalClose {
		return j.finishLocked()
	}
	return nil
}

// Close 结束当前文件
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finishLocked()
}

func (j *Journal) startLocked(e JournalEntry) error {
	if err := j.finishLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	session := e.Session
	if len(session) > 8 {
		session = session[:8]
	}
	if session == "" {
		session = "none"
	}
	name := fmt.Sprintf("%s-%s-%s.jsonl.zst", j.prefix, e.Time.UTC().Format("20060102T150405.000000000"), session)
	path := filepath.Join(j.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.cur = &journalFile{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 32*1024)}
	return nil
}

func (j *Journal) finishLocked() error {
	if j.cur == nil {
		return nil
	}
	err := j.cur.close()
	j.cur = nil
	return err
}

// append 写入一行并刷到文件，进程异常退出时最多丢失当前帧
func (jf *journalFile) append(e JournalEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := jf.w.Write(b); err != nil {
		return err
	}
	if err := jf.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := jf.w.Flush(); err != nil {
		return err
	}
	return jf.enc.Flush()
}

func (jf *journalFile) close() error {
	_ = jf.w.Flush()
	err := jf.enc.Close()
	if cerr := jf.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// JournalFiles 列出 dir 下的帧日志文件（按时间先后）
func JournalFiles(dir, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = defaultJournalPrefix
	}
	out, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// ReadJournal 读取单个帧日志文件的全部条目
func ReadJournal(path string) ([]JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []JournalEntry
	for sc.Scan() {
		var e JournalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// LoadJournal 读取一个文件，或目录下的全部帧日志文件（按时间顺序拼接）
func LoadJournal(path string) ([]JournalEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return ReadJournal(path)
	}
	files, err := JournalFiles(path, "")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no journal files", path)
	}
	var out []JournalEntry
	for _, f := range files {
		entries, err := ReadJournal(f)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// SessionJournal 同一会话的全部条目
type SessionJournal struct {
	Session string
	Entries []JournalEntry
}

// GroupBySession 按会话拆分条目，保持会话首次出现的顺序与会话内的原始顺序
func GroupBySession(entries []JournalEntry) []SessionJournal {
	var out []SessionJournal
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Session]
		if !ok {
			i = len(out)
			index[e.Session] = i
			out = append(out, SessionJournal{Session: e.Session})
		}
		out[i].Entries = append(out[i].Entries, e)
	}
	return out
}
