package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"rankscout/internal/logging"
)

// rodSession adapts a rod page to the Session capability surface.
type rodSession struct {
	page   *rod.Page
	logger logging.Logger
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load for %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) Back(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return p.WaitLoad()
}

func (s *rodSession) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		s.logger.Warn("Failed to read page info", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return info.URL
}

func (s *rodSession) Title() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (s *rodSession) Has(selector string) (bool, error) {
	has, _, err := s.page.Has(selector)
	return has, err
}

func (s *rodSession) Element(selector string) (Element, error) {
	has, el, err := s.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

func (s *rodSession) Elements(selector string) ([]Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, err
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *rodSession) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (s *rodSession) ScriptClick(el Element) error {
	re, ok := el.(*rodElement)
	if !ok {
		return fmt.Errorf("script click: element is not a page element")
	}
	_, err := re.el.Eval(`() => this.click()`)
	return err
}

func (s *rodSession) Close() error {
	return s.page.Close()
}

// rodElement adapts a rod element to the Element capability surface.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	val, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

func (e *rodElement) Has(selector string) (bool, error) {
	has, _, err := e.el.Has(selector)
	return has, err
}

func (e *rodElement) Element(selector string) (Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Clear() error {
	_, err := e.el.Eval(`() => { this.value = '' }`)
	return err
}

func (e *rodElement) PressEnter() error {
	return e.el.Type(input.Enter)
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
