package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/gojankovic/fpl-insights/internal/models"
	"github.com/gojankovic/fpl-insights/internal/provider"
)

// DataValidator checks synced records before they are persisted
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		logger:   logger,
	}
}

// ValidatePlayer validates a player profile for required fields and constraints
func (v *DataValidator) ValidatePlayer(p *models.PlayerAttributes) []string {
	var errors []string

	if err := v.validate.Struct(p); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errors = append(errors, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	if !p.Position.Valid() {
		errors = append(errors, fmt.Sprintf("unknown position %d", int(p.Position)))
	}
	if p.Minutes < 0 || p.Starts < 0 {
		errors = append(errors, "minutes and starts cannot be negative")
	}
	if p.ChanceOfPlaying != nil && (*p.ChanceOfPlaying < 0 || *p.ChanceOfPlaying > 100) {
		errors = append(errors, fmt.Sprintf("chance_of_playing out of range (0-100), got %.0f", *p.ChanceOfPlaying))
	}
	if p.Price.IsNegative() {
		errors = append(errors, "price cannot be negative")
	}

	return errors
}

// ValidateRecord validates one history row
func (v *DataValidator) ValidateRecord(r *models.GameweekRecord) []string {
	var errors []string

	if err := v.validate.Struct(r); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errors = append(errors, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	// a double round can reach 180 minutes
	if r.Minutes < 0 || r.Minutes > 180 {
		errors = append(errors, fmt.Sprintf("minutes out of range (0-180), got %d", r.Minutes))
	}
	if r.Goals < 0 || r.Assists < 0 || r.Bonus < 0 {
		errors = append(errors, "counting stats cannot be negative")
	}

	return errors
}

// ValidateFixture checks difficulty ratings sit on the 1-5 scale
func (v *DataValidator) ValidateFixture(f *provider.Fixture) []string {
	var errors []string
	if f.HomeTeam == f.AwayTeam {
		errors = append(errors, fmt.Sprintf("fixture %d has the same team on both sides", f.ID))
	}
	for _, d := range []int{f.HomeDifficulty, f.AwayDifficulty} {
		if d < 1 || d > 5 {
			errors = append(errors, fmt.Sprintf("fixture %d difficulty out of range (1-5), got %d", f.ID, d))
		}
	}
	return errors
}
