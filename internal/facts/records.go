package facts

import (
	"fmt"
	"iter"

	"github.com/go-viper/mapstructure/v2"
)

// JobGroupInfo describes a job group (a coarse occupational classification, keyed by its
// ROME code).
type JobGroupInfo struct {
	RomeID               string   `mapstructure:"_id"`
	Name                 string   `mapstructure:"name"`
	MasculineName        string   `mapstructure:"masculineName"`
	FeminineName         string   `mapstructure:"feminineName"`
	RequirementsDiplomas []string `mapstructure:"requirementsDiplomas"`
	ApplicationModes     []string `mapstructure:"applicationModes"`
	PreferredModes       []string `mapstructure:"preferredApplicationModes"`
	GrowthPercent        float64  `mapstructure:"growth20122022"`
}

// LocalStats holds labor-market statistics for one job group in one area.
// Pointer fields distinguish "not provided" from a zero value.
type LocalStats struct {
	DepartementID                  string   `mapstructure:"departementId"`
	CityID                         string   `mapstructure:"cityId"`
	JobGroupID                     string   `mapstructure:"jobGroupId"`
	YearlyAvgOffersPer10Candidates *float64 `mapstructure:"yearlyAvgOffersPer10Candidates"`
	YearlyAvgOffersDenominator     *float64 `mapstructure:"yearlyAvgOffersDenominator"`
	UnemploymentDurationDays       *int     `mapstructure:"unemploymentDurationDays"`
	NumJobOffersLastYear           *int     `mapstructure:"numJobOffersLastYear"`
}

// ContentRecord is any piece of content gated by a filter list: an advice module, a job
// board, an association, a diagnostic sentence, a testimonial...
type ContentRecord struct {
	ID       string   `mapstructure:"_id" json:"id"`
	Filters  []string `mapstructure:"filters" json:"filters,omitempty"`
	Priority float64  `mapstructure:"priority" json:"priority,omitempty"`
	Category string   `mapstructure:"category" json:"category,omitempty"`
	Template string   `mapstructure:"template" json:"-"`
	Name     string   `mapstructure:"name" json:"name,omitempty"`
	Link     string   `mapstructure:"link" json:"link,omitempty"`
}

// LocalStatsKey builds the key of a local_diagnosis document.
func LocalStatsKey(area, jobGroupID string) string {
	return area + ":" + jobGroupID
}

// Decode converts a raw document into one of the typed views above.
// Numbers are decoded leniently since datasets mix ints and floats.
func Decode(doc Document, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(doc)); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}
	return nil
}

// Records decodes a document sequence into content records, lazily.
// A document that fails to decode is yielded as an error and the iteration goes on.
func Records(docs iter.Seq2[Document, error]) iter.Seq2[ContentRecord, error] {
	return func(yield func(ContentRecord, error) bool) {
		for doc, err := range docs {
			var record ContentRecord
			if err == nil {
				err = Decode(doc, &record)
			}
			if !yield(record, err) {
				return
			}
		}
	}
}
