package ui

import "github.com/rivo/tview"

// Pages is a stack-based page manager wrapping tview.Pages. Components are
// registered once under a key and then pushed and popped by key.
type Pages struct {
	*tview.Pages
	components map[string]Component
	stack      []string
	onChange   func(top Component)
}

// NewPages creates an empty page manager.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// Register adds a component under key, hidden.
func (p *Pages) Register(key string, c Component) {
	p.components[key] = c
	p.AddPage(key, c, true, false)
}

// SetOnChange sets a callback fired with the new top after every change.
func (p *Pages) SetOnChange(fn func(top Component)) {
	p.onChange = fn
}

// Push shows key on top of the stack. Pushing the current top is a no-op.
func (p *Pages) Push(key string) {
	if p.CurrentKey() == key {
		return
	}
	if n := len(p.stack); n > 0 {
		p.HidePage(p.stack[n-1])
	}
	p.stack = append(p.stack, key)
	p.show(key)
}

// Pop removes the top page and returns its key. The last page is never
// popped.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	p.show(p.stack[len(p.stack)-1])
	return top
}

// Reset clears the stack and shows only key.
func (p *Pages) Reset(key string) {
	for _, k := range p.stack {
		p.HidePage(k)
	}
	p.stack = []string{key}
	p.show(key)
}

// CurrentKey returns the key of the top page, or "".
func (p *Pages) CurrentKey() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Current returns the top component, or nil.
func (p *Pages) Current() Component {
	return p.components[p.CurrentKey()]
}

// Titles returns the display names of the stack, bottom first.
func (p *Pages) Titles() []string {
	out := make([]string, 0, len(p.stack))
	for _, k := range p.stack {
		out = append(out, p.components[k].Name())
	}
	return out
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) show(key string) {
	p.ShowPage(key)
	p.SendToFront(key)
	if p.onChange != nil {
		p.onChange(p.components[key])
	}
}
