// Package progress maps the workflow in-flight flag to an indeterminate
// progress indicator. The training service exposes no fractional progress.
package progress

// Defaults for the indicator text.
const (
	DefaultTitle   = "Training Progress"
	DefaultCaption = "Training is in progress. This may take several minutes or hours depending on your dataset size and configuration."
)

// Indicator is what the presentation layer draws.
type Indicator struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Reporter is stateless; it only reflects the flag it is given.
type Reporter struct {
	Title   string
	Caption string
}

// New returns a Reporter with the default title and caption.
func New() Reporter { return Reporter{Title: DefaultTitle, Caption: DefaultCaption} }

// Report returns a visible indicator iff inFlight is set.
func (r Reporter) Report(inFlight bool) Indicator {
	if !inFlight {
		return Indicator{}
	}
	title, caption := r.Title, r.Caption
	if title == "" {
		title = DefaultTitle
	}
	if caption == "" {
		caption = DefaultCaption
	}
	return Indicator{Visible: true, Title: title, Caption: caption}
}
