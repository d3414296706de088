// step.go — Step: an immutable record of one recorded user action plus the
// context required to replay it. Fields are a tagged variant on ActionType
// rather than an open map, per spec.md §9's explicit guidance.
package wtypes

// ActionType enumerates the recordable action kinds.
type ActionType string

const (
	ActionClick        ActionType = "click"
	ActionInputCommit  ActionType = "input_commit"
	ActionSelectChange ActionType = "select_change"
	ActionSubmit       ActionType = "submit"
	ActionNavigate     ActionType = "navigate"
	ActionCopy         ActionType = "copy"
	ActionCut          ActionType = "cut"
	ActionPaste        ActionType = "paste"
)

// Selectors bundles every selector strategy recorded for a step, tried in
// preference order by the page controller (spec.md §4.6).
type Selectors struct {
	Primary          string   `json:"primary,omitempty"` // id / data-testid / name
	CSS              string   `json:"css,omitempty"`
	XPath            string   `json:"xpath,omitempty"`
	DataTestID       string   `json:"dataTestId,omitempty"`
	StableAttributes []string `json:"stableAttributes,omitempty"`
}

// BoundingBox is a CSS pixel rectangle.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementMetadata is descriptive context about the recorded target element,
// used both for display and as healer scoring input.
type ElementMetadata struct {
	Tag            string      `json:"tag,omitempty"`
	Role           string      `json:"role,omitempty"`
	Text           string      `json:"text,omitempty"`
	Classes        []string    `json:"classes,omitempty"`
	BoundingBox    BoundingBox `json:"boundingBox,omitempty"`
	ParentChain    []string    `json:"parentChain,omitempty"`
	FormContext    string      `json:"formContext,omitempty"`
	VisualRegion   string      `json:"visualRegion,omitempty"`
	NearbyLandmark []string    `json:"nearbyLandmarks,omitempty"`
}

// PageContext is the minimum page context recorded with a step.
type PageContext struct {
	URL string `json:"url"`
}

// ActionData carries the optional, action-type-specific payload recorded
// with a step (e.g. a clipboard preview for copy steps).
type ActionData struct {
	ClipboardPreview string `json:"clipboardPreview,omitempty"`
}

// HealedSelectorOverride is cached on a step once healing has succeeded for
// it during the current session. The step, override included, is what the
// page controller hands its ElementFinder; the controller and the healer do
// not read the override themselves.
type HealedSelectorOverride struct {
	Selector   string  `json:"selector"`
	Strategy   string  `json:"strategy"`
	Confidence float64 `json:"confidence"`
}

// Step is one recorded user action plus everything needed to replay it.
type Step struct {
	StepNumber int        `json:"stepNumber"`
	ActionType ActionType `json:"actionType"`

	Selectors   Selectors       `json:"selectors"`
	ElementMeta ElementMetadata `json:"elementMeta"`
	PageContext PageContext     `json:"pageContext"`

	ActionData *ActionData `json:"actionData,omitempty"`

	Instruction string `json:"instruction,omitempty"`
	Label       string `json:"label,omitempty"`

	HealedSelector *HealedSelectorOverride `json:"healedSelector,omitempty"`
}
