package browser

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned when a selector matches nothing on the
// current page. Callers treat it as a transient page-state condition, never
// as a reason to abort a batch.
var ErrElementNotFound = errors.New("element not found")

// Element is a handle to a single DOM node on the current page.
type Element interface {
	// Text returns the rendered text content of the node.
	Text() (string, error)

	// Attribute returns the value of the named attribute, or "" when the
	// attribute is absent.
	Attribute(name string) (string, error)

	// Has reports whether a descendant matches the selector.
	Has(selector string) (bool, error)

	// Element returns the first descendant matching the selector, or
	// ErrElementNotFound.
	Element(selector string) (Element, error)

	// Input appends text to the element as keyboard input.
	Input(text string) error

	// Clear empties an input element's value.
	Clear() error

	// PressEnter submits via the Enter key.
	PressEnter() error

	// Click performs a native click.
	Click() error
}

// Session is the capability surface the core components need from a live
// browser. The rank finder and audit funnel depend only on this interface so
// a fake page can stand in during tests.
type Session interface {
	// Navigate loads the URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Back navigates one entry back in session history.
	Back(ctx context.Context) error

	// CurrentURL returns the URL of the page currently loaded.
	CurrentURL() string

	// Title returns the document title.
	Title() (string, error)

	// Has reports whether any element matches the selector right now,
	// without waiting.
	Has(selector string) (bool, error)

	// Element returns the first match for the selector without waiting, or
	// ErrElementNotFound.
	Element(selector string) (Element, error)

	// Elements returns all current matches for the selector in document
	// order.
	Elements(selector string) ([]Element, error)

	// WaitElement waits up to timeout for a match to appear and returns it.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// ScriptClick clicks an element through injected JavaScript, for
	// controls that resist native clicks.
	ScriptClick(el Element) error

	// Close releases the underlying page.
	Close() error
}
