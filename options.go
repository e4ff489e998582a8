package growthcurve

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidOptions is returned when an options struct fails validation.
var ErrInvalidOptions = errors.New("invalid analysis options")

// Cleanup strategies for the post-baseline monotone pass.
const (
	CleanupLNDS   = "lnds"
	CleanupGreedy = "greedy"
	CleanupNone   = "none"
)

// BaselineOptions controls DetectBaseline.
type BaselineOptions struct {
	// PreWindowEnd is the last time (minutes) treated as "before growth".
	PreWindowEnd float64 `yaml:"pre_window_end" json:"pre_window_end" validate:"finite"`
	// BinWidth is the histogram bin width in OD units.
	BinWidth float64 `yaml:"bin_width" json:"bin_width" validate:"finite,gt=0"`
	// Tolerance is the allowed deviation from the baseline level.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"finite,gt=0"`
	// MinRunLength is the shortest run of consecutive candidates accepted as a plateau.
	MinRunLength int `yaml:"min_run_length" json:"min_run_length" validate:"min=1"`
	// MonotoneEpsilon is the downward drop tolerated by the monotone cleanup.
	MonotoneEpsilon float64 `yaml:"monotone_epsilon" json:"monotone_epsilon" validate:"finite,gte=0"`
	// MonotoneTimeLimit bounds the cleanup in time; +Inf applies it to the whole series.
	MonotoneTimeLimit float64 `yaml:"monotone_time_limit" json:"monotone_time_limit" validate:"notnan"`
	// Cleanup selects the monotone cleanup strategy: lnds, greedy or none.
	Cleanup string `yaml:"cleanup" json:"cleanup" validate:"oneof=lnds greedy none"`
}

// DefaultBaselineOptions returns the defaults used by the plate reader workflow.
func DefaultBaselineOptions() BaselineOptions {
	return BaselineOptions{
		PreWindowEnd:      45.0,
		BinWidth:          0.001,
		Tolerance:         0.001,
		MinRunLength:      3,
		MonotoneEpsilon:   0,
		MonotoneTimeLimit: 400.0,
		Cleanup:           CleanupLNDS,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidOptions.
func (o BaselineOptions) Validate() error {
	return validateOptions("baseline", o)
}

type baselineOptionsJSON struct {
	baselineOptionsAlias
	MonotoneTimeLimit *float64 `json:"monotone_time_limit"`
}

type baselineOptionsAlias BaselineOptions

// MarshalJSON writes an unbounded MonotoneTimeLimit as null, since JSON has
// no infinity.
func (o BaselineOptions) MarshalJSON() ([]byte, error) {
	out := baselineOptionsJSON{baselineOptionsAlias: baselineOptionsAlias(o)}
	if !math.IsInf(o.MonotoneTimeLimit, 1) {
		out.MonotoneTimeLimit = floatPtr(o.MonotoneTimeLimit)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null or absent MonotoneTimeLimit as unbounded.
func (o *BaselineOptions) UnmarshalJSON(data []byte) error {
	var in baselineOptionsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*o = BaselineOptions(in.baselineOptionsAlias)
	o.MonotoneTimeLimit = math.Inf(1)
	if in.MonotoneTimeLimit != nil {
		o.MonotoneTimeLimit = *in.MonotoneTimeLimit
	}
	return nil
}

// LogPhaseOptions controls DetectLogPhase.
type LogPhaseOptions struct {
	WindowSize  int     `yaml:"window_size" json:"window_size" validate:"min=2"`
	R2Min       float64 `yaml:"r2_min" json:"r2_min" validate:"finite,gte=0,lte=1"`
	ODMin       float64 `yaml:"od_min" json:"od_min" validate:"finite,gte=0"`
	FracKMax    float64 `yaml:"frac_k_max" json:"frac_k_max" validate:"finite,gt=0"`
	MuRelMin    float64 `yaml:"mu_rel_min" json:"mu_rel_min" validate:"finite,gt=0"`
	MuRelMax    float64 `yaml:"mu_rel_max" json:"mu_rel_max" validate:"finite,gtefield=MuRelMin"`
	PlateauTail int     `yaml:"plateau_tail" json:"plateau_tail" validate:"min=1"`
}

// DefaultLogPhaseOptions returns the defaults for smoothed OD600 curves.
func DefaultLogPhaseOptions() LogPhaseOptions {
	return LogPhaseOptions{
		WindowSize:  5,
		R2Min:       0.98,
		ODMin:       0.01,
		FracKMax:    0.4,
		MuRelMin:    0.8,
		MuRelMax:    1.05,
		PlateauTail: 5,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidOptions.
func (o LogPhaseOptions) Validate() error {
	return validateOptions("log phase", o)
}

// StructureOptions controls InferGrowthStructure.
type StructureOptions struct {
	// StationaryFracK is the fraction of the plateau estimate that marks stationary phase.
	StationaryFracK float64 `yaml:"stationary_frac_k" json:"stationary_frac_k" validate:"finite,gt=0,lte=1"`
}

// DefaultStructureOptions returns the defaults for phase segmentation.
func DefaultStructureOptions() StructureOptions {
	return StructureOptions{StationaryFracK: 0.9}
}

// Validate reports the first invalid field, wrapped in ErrInvalidOptions.
func (o StructureOptions) Validate() error {
	return validateOptions("structure", o)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func optionsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			return isFinite(fl.Field().Float())
		})
		_ = validate.RegisterValidation("notnan", func(fl validator.FieldLevel) bool {
			return !math.IsNaN(fl.Field().Float())
		})
	})
	return validate
}

func validateOptions(kind string, v any) error {
	err := optionsValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidOptions, kind, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", fe.Field(), fe.Value(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidOptions, kind, strings.Join(msgs, "; "))
}
