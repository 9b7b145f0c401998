package confirmation

import "fmt"

// ShareContent is what the page hands to the browser's share target.
type ShareContent struct {
	Method string `json:"method"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	URL    string `json:"url,omitempty"`
}

// ShareSink renders a confirmation for one share target.
type ShareSink interface {
	Share(c *Confirmation) ShareContent
}

// NativeShare targets the Web Share API.
type NativeShare struct {
	URL string
}

func (s NativeShare) Share(c *Confirmation) ShareContent {
	return ShareContent{
		Method: "native",
		Title:  "Booking Confirmation",
		Text:   fmt.Sprintf("Booking confirmed for %s. Reference: %s", c.RoomName, c.Reference),
		URL:    s.URL,
	}
}

// ClipboardShare is the fallback when native sharing is not available.
type ClipboardShare struct{}

func (ClipboardShare) Share(c *Confirmation) ShareContent {
	return ShareContent{
		Method: "clipboard",
		Text:   "Booking Reference: " + c.Reference,
	}
}

// SinkFor picks the share target based on what the caller's browser supports.
func SinkFor(nativeAvailable bool, url string) ShareSink {
	if nativeAvailable {
		return NativeShare{URL: url}
	}
	return ClipboardShare{}
}
