// Package browsertest provides an in-memory Session backed by static HTML,
// so rank and audit logic can run against scripted pages instead of a live
// browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"rankscout/internal/browser"
)

// Session is a fake browser.Session. Pages are registered up front; clicks
// and form submits are routed through the Routes map and SubmitFunc hook.
type Session struct {
	mu      sync.Mutex
	pages   map[string]string
	current string
	history []string
	typed   map[string]string

	// SubmitFunc decides where pressing Enter in an input navigates. It
	// receives the input's selector and the accumulated typed text and
	// returns the destination URL ("" stays on the page).
	SubmitFunc func(selector, typed string) string

	// Routes maps a clicked href (or, for non-anchor elements, the selector
	// the element was found by) to a destination URL.
	Routes map[string]string

	// Clicks records every click in order, by href or selector.
	Clicks []string

	// NavigateErr, when set, fails every Navigate call.
	NavigateErr error

	// TextErr fails Text on every element found by the given selector.
	TextErr map[string]error
}

// New creates an empty fake session.
func New() *Session {
	return &Session{
		pages:   make(map[string]string),
		typed:   make(map[string]string),
		Routes:  make(map[string]string),
		TextErr: make(map[string]error),
	}
}

// AddPage registers a page under a URL.
func (s *Session) AddPage(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
}

// SetHTML replaces the content of a registered page. Safe to call while
// another goroutine polls the session, which is how captcha resolution is
// scripted.
func (s *Session) SetHTML(url, html string) {
	s.AddPage(url, html)
}

// Goto jumps straight to a registered page without going through Navigate.
func (s *Session) Goto(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = url
}

// Typed returns the text typed into the input found by selector.
func (s *Session) Typed(selector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typed[selector]
}

func (s *Session) doc() (*goquery.Document, error) {
	html, ok := s.pages[s.current]
	if !ok {
		return nil, fmt.Errorf("no page loaded")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (s *Session) navigateLocked(url string) error {
	if _, ok := s.pages[url]; !ok {
		return fmt.Errorf("no such page: %s", url)
	}
	if s.current != "" {
		s.history = append(s.history, s.current)
	}
	s.current = url
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	return s.navigateLocked(url)
}

func (s *Session) Back(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return nil
	}
	s.current = s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	return nil
}

func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Title() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.doc()
	if err != nil {
		return "", err
	}
	return doc.Find("title").Text(), nil
}

func (s *Session) Has(selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.doc()
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, nil
}

func (s *Session) Element(selector string) (browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.doc()
	if err != nil {
		return nil, err
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return &element{s: s, sel: sel.First(), selector: selector}, nil
}

func (s *Session) Elements(selector string) ([]browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.doc()
	if err != nil {
		return nil, err
	}

	var out []browser.Element
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &element{s: s, sel: sel, selector: selector})
	})
	return out, nil
}

func (s *Session) WaitElement(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		el, err := s.Element(selector)
		if err == nil {
			return el, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func (s *Session) ScriptClick(el browser.Element) error {
	return el.Click()
}

func (s *Session) Close() error {
	return nil
}

type element struct {
	s        *Session
	sel      *goquery.Selection
	selector string
}

func (e *element) Text() (string, error) {
	e.s.mu.Lock()
	err := e.s.TextErr[e.selector]
	e.s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return e.sel.Text(), nil
}

func (e *element) Attribute(name string) (string, error) {
	val, _ := e.sel.Attr(name)
	return val, nil
}

func (e *element) Has(selector string) (bool, error) {
	return e.sel.Find(selector).Length() > 0, nil
}

func (e *element) Element(selector string) (browser.Element, error) {
	sub := e.sel.Find(selector)
	if sub.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return &element{s: e.s, sel: sub.First(), selector: selector}, nil
}

func (e *element) Input(text string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.typed[e.selector] += text
	return nil
}

func (e *element) Clear() error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.typed[e.selector] = ""
	return nil
}

func (e *element) PressEnter() error {
	e.s.mu.Lock()
	submit := e.s.SubmitFunc
	typed := e.s.typed[e.selector]
	e.s.mu.Unlock()

	if submit == nil {
		return nil
	}
	dest := submit(e.selector, typed)
	if dest == "" {
		return nil
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return e.s.navigateLocked(dest)
}

func (e *element) Click() error {
	key, _ := e.sel.Attr("href")
	if key == "" {
		key = e.selector
	}

	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.Clicks = append(e.s.Clicks, key)

	if dest, ok := e.s.Routes[key]; ok {
		return e.s.navigateLocked(dest)
	}
	if _, ok := e.s.pages[key]; ok {
		return e.s.navigateLocked(key)
	}
	// Click with no route: page state does not change
	return nil
}
