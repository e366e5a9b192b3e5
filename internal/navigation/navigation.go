package navigation

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Navigator 畫面跳轉，state 為隨跳轉帶過去的資料 (例如訂單成功快照)
type Navigator interface {
	Navigate(route string, state any)
}

// HashRoute /login => #/login
func HashRoute(route string) string {
	if strings.HasPrefix(route, "#") {
		return route
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return "#" + route
}

// Entry 一次跳轉紀錄
type Entry struct {
	Route string
	State any
}

// Recorder 記錄所有跳轉，CLI 讀取最後位置，測試用來驗證
type Recorder struct {
	mu      sync.Mutex
	history []Entry
	out     io.Writer
}

// NewRecorder out 不為 nil 時每次跳轉都會印出一行
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

var _ Navigator = (*Recorder)(nil)

func (r *Recorder) Navigate(route string, state any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hr := HashRoute(route)
	r.history = append(r.history, Entry{Route: hr, State: state})
	if r.out != nil {
		fmt.Fprintf(r.out, "-> %s\n", hr)
	}
}

// Last 尚未跳轉過時 ok 為 false
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return Entry{}, false
	}
	return r.history[len(r.history)-1], true
}

func (r *Recorder) History() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.history))
	copy(out, r.history)
	return out
}

// Nop 不做任何事
type Nop struct{}

func (Nop) Navigate(string, any) {}
