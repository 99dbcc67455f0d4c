package experiment

import "time"

// ExperimentType categorizes an experiment. Informational only; nothing in
// assignment or analysis branches on it.
type ExperimentType string

const (
	TypeFeature  ExperimentType = "feature"
	TypeUI       ExperimentType = "ui"
	TypePricing  ExperimentType = "pricing"
	TypeContent  ExperimentType = "content"
	TypeWorkflow ExperimentType = "workflow"
)

// VariantType labels a variant's role within its experiment.
type VariantType string

const (
	VariantControl VariantType = "control"
	VariantA       VariantType = "variant_a"
	VariantB       VariantType = "variant_b"
	VariantC       VariantType = "variant_c"
)

// Variant is one arm of an experiment. Weight is the percentage of traffic
// the arm should receive; weights across an experiment must sum to 100.
type Variant struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Type   VariantType    `json:"type" yaml:"type"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Weight float64        `json:"weight" yaml:"weight"`
}

// GoalType categorizes what a goal measures.
type GoalType string

const (
	GoalConversion GoalType = "conversion"
	GoalEngagement GoalType = "engagement"
	GoalRevenue    GoalType = "revenue"
	GoalCustom     GoalType = "custom"
)

// Goal is a declared success metric. Goals label conversions; they don't
// drive any computation.
type Goal struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Type        GoalType `json:"type" yaml:"type"`
	Metric      string   `json:"metric" yaml:"metric"`
	TargetValue *float64 `json:"targetValue,omitempty" yaml:"target_value,omitempty"`
	Weight      *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Audience describes who an experiment should target. The filter is declared
// in the schema but not enforced; every subject currently passes.
type Audience struct {
	UserTypes   []string       `json:"userTypes,omitempty" yaml:"user_types,omitempty"`
	Segments    []string       `json:"segments,omitempty" yaml:"segments,omitempty"`
	Countries   []string       `json:"countries,omitempty" yaml:"countries,omitempty"`
	Devices     []string       `json:"devices,omitempty" yaml:"devices,omitempty"`
	Browsers    []string       `json:"browsers,omitempty" yaml:"browsers,omitempty"`
	CustomRules map[string]any `json:"customRules,omitempty" yaml:"custom_rules,omitempty"`
}

// Config is a full experiment definition.
type Config struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Type        ExperimentType `json:"type" yaml:"type"`
	Variants    []Variant      `json:"variants" yaml:"variants"`

	// TrafficSplit mirrors the variant weights by id. It is supplied by the
	// creator, not derived, and is carried verbatim for consumers that read
	// it. The Variants weights are authoritative for assignment.
	TrafficSplit map[string]float64 `json:"trafficSplit,omitempty" yaml:"traffic_split,omitempty"`

	StartDate time.Time  `json:"startDate" yaml:"start_date"`
	EndDate   *time.Time `json:"endDate,omitempty" yaml:"end_date,omitempty"`
	IsActive  bool       `json:"isActive" yaml:"is_active"`

	Audience *Audience `json:"targetAudience,omitempty" yaml:"target_audience,omitempty"`
	Goals    []Goal    `json:"goals,omitempty" yaml:"goals,omitempty"`

	// BaselineVariant names the variant significance is measured against.
	// Defaults to "control".
	BaselineVariant string `json:"baselineVariant,omitempty" yaml:"baseline_variant,omitempty"`

	MinSampleSize int `json:"minSampleSize,omitempty" yaml:"min_sample_size,omitempty"`

	// ConfidenceLevel is a percentage (e.g. 95). It sets the significance
	// threshold and the width of reported confidence intervals.
	ConfidenceLevel float64 `json:"confidenceLevel,omitempty" yaml:"confidence_level,omitempty"`
}

func (c *Config) variantByID(id string) *Variant {
	for i := range c.Variants {
		if c.Variants[i].ID == id {
			v := c.Variants[i]
			return &v
		}
	}
	return nil
}

// SubjectKind tags how a subject was identified.
type SubjectKind string

const (
	SubjectUser    SubjectKind = "user"
	SubjectSession SubjectKind = "session"
)

// Subject is the identity an assignment sticks to. A user id takes
// precedence over a session id; a subject known only by session that later
// authenticates becomes a different subject and may draw a different
// variant. That divergence is deliberate.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

// SubjectFor resolves the identity for an assignment. The second return is
// false when neither id is present, in which case no assignment can be made.
func SubjectFor(userID, sessionID string) (Subject, bool) {
	if userID != "" {
		return Subject{Kind: SubjectUser, ID: userID}, true
	}
	if sessionID != "" {
		return Subject{Kind: SubjectSession, ID: sessionID}, true
	}
	return Subject{}, false
}

// Result is one recorded event. A non-empty GoalID marks a conversion;
// otherwise the event is a bare impression. Events are append-only and are
// never deduplicated.
type Result struct {
	ID           string         `json:"id"`
	ExperimentID string         `json:"experimentId"`
	VariantID    string         `json:"variantId"`
	UserID       string         `json:"userId,omitempty"`
	SessionID    string         `json:"sessionId,omitempty"`
	GoalID       string         `json:"goalId,omitempty"`
	Value        *float64       `json:"value,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// IsConversion reports whether the event carries a goal.
func (r *Result) IsConversion() bool {
	return r.GoalID != ""
}

// VariantStats is the on-demand aggregate for one variant.
type VariantStats struct {
	VariantID   string `json:"variantId"`
	VariantName string `json:"variantName"`

	Impressions int `json:"impressions"` // all events for the variant
	Conversions int `json:"conversions"` // events carrying a goal

	ConversionRate    float64 `json:"conversionRate"` // percent
	Revenue           float64 `json:"revenue"`
	AverageOrderValue float64 `json:"averageOrderValue"`

	// Wilson score interval on the conversion rate, as fractions.
	CILower float64 `json:"ciLower"`
	CIUpper float64 `json:"ciUpper"`
}

// Significance is the pairwise z-test outcome for one variant against the
// experiment's baseline.
type Significance struct {
	BaselineID    string  `json:"baselineId"`
	VariantID     string  `json:"variantId"`
	ZScore        float64 `json:"zScore"`
	PValue        float64 `json:"pValue"`
	IsSignificant bool    `json:"isSignificant"`
	Improvement   float64 `json:"improvement"` // percent lift over baseline

	// Confidence interval on the rate difference, as fractions.
	CILower float64 `json:"ciLower"`
	CIUpper float64 `json:"ciUpper"`
}
