package scoring

import (
	"coach/internal/facts"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// fact enumerates the memoised accessors of a Context. The cache of derived facts is an
// array indexed by this type, so its key space is bounded and known at compile time.
type fact int

const (
	factJobGroupInfo fact = iota
	factLocalStats
	factMarketStress
	factSearchLengthAtCreation
	factSearchLengthNow
	factAge
	factTemplateVariables
	numFacts
)

// noOffersMarketStress is the market stress reported when there are no offers at all.
const noOffersMarketStress = 1000.0

// daysPerMonth is the average month length used for search lengths.
const daysPerMonth = 30.5

var templateVariablePattern = regexp.MustCompile(`%([a-zA-Z]\w*)`)

type memo struct {
	value any
	err   error
	done  bool
}

// Context is the request-scoped view of one (user, project) evaluation.
//
// It owns the memoisation cache of every derived fact: each accessor runs at most once
// per Context, errors included. A Context is not safe for concurrent use and must not
// outlive the request it was created for.
type Context struct {
	// ID identifies the evaluation in logs and in the audit trail.
	ID       string
	Project  Project
	User     User
	Features Features

	now        time.Time
	store      facts.Store
	translator facts.Translator
	logger     *slog.Logger

	facts [numFacts]memo
	cache map[string]memo
}

// ContextOption customizes a Context.
type ContextOption func(*Context)

// WithNow pins the evaluation time, mostly for deterministic tests.
func WithNow(now time.Time) ContextOption {
	return func(c *Context) {
		c.now = now
	}
}

// WithTranslator sets the translation provider used by Translate and PopulateTemplate.
func WithTranslator(t facts.Translator) ContextOption {
	return func(c *Context) {
		c.translator = t
	}
}

// WithLogger sets the logger used by models evaluated against the context.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates the scoring context of one evaluation.
func NewContext(project Project, user User, features Features, store facts.Store, opts ...ContextOption) *Context {
	c := &Context{
		ID:         uuid.NewString(),
		Project:    project,
		User:       user,
		Features:   features,
		now:        time.Now(),
		store:      store,
		translator: facts.IdentityTranslator{},
		logger:     slog.Default(),
		cache:      make(map[string]memo),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("evaluation", c.ID)
	return c
}

// Now returns the evaluation time.
func (c *Context) Now() time.Time {
	return c.now
}

// Logger returns the evaluation logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Store returns the fact store, for models that stream collections themselves.
func (c *Context) Store() facts.Store {
	return c.store
}

func memoize[T any](c *Context, f fact, compute func() (T, error)) (T, error) {
	m := &c.facts[f]
	if !m.done {
		value, err := compute()
		*m = memo{value: value, err: err, done: true}
	}
	value, _ := m.value.(T)
	return value, m.err
}

// Cached memoises compute under a caller-supplied key for the lifetime of the context.
// Models use it for helper computations shared between several of them.
func Cached[T any](c *Context, key string, compute func() (T, error)) (T, error) {
	m, found := c.cache[key]
	if !found {
		value, err := compute()
		m = memo{value: value, err: err, done: true}
		c.cache[key] = m
	}
	value, _ := m.value.(T)
	return value, m.err
}

// JobGroupInfo returns the metadata of the project's job group.
func (c *Context) JobGroupInfo() (facts.JobGroupInfo, error) {
	return memoize(c, factJobGroupInfo, func() (facts.JobGroupInfo, error) {
		var info facts.JobGroupInfo
		if c.Project.JobGroupID == "" {
			return info, fmt.Errorf("%w: no job group", ErrNotEnoughData)
		}
		doc, found, err := c.store.GetDocument(facts.JobGroupInfoCollection, c.Project.JobGroupID)
		if err != nil {
			return info, err
		}
		if !found {
			return info, fmt.Errorf("%w: job group %s", ErrNotEnoughData, c.Project.JobGroupID)
		}
		err = facts.Decode(doc, &info)
		return info, err
	})
}

// LocalStats returns the market statistics of the project's job group in its departement,
// falling back to the city statistics when the departement has none.
func (c *Context) LocalStats() (facts.LocalStats, error) {
	return memoize(c, factLocalStats, func() (facts.LocalStats, error) {
		var stats facts.LocalStats
		if c.Project.JobGroupID == "" {
			return stats, fmt.Errorf("%w: no job group", ErrNotEnoughData)
		}

		lookups := []struct {
			collection string
			area       string
		}{
			{facts.LocalDiagnosisCollection, c.Project.DepartementID},
			{facts.CityStatsCollection, c.Project.CityID},
		}
		for _, lookup := range lookups {
			if lookup.area == "" {
				continue
			}
			key := facts.LocalStatsKey(lookup.area, c.Project.JobGroupID)
			doc, found, err := c.store.GetDocument(lookup.collection, key)
			if err != nil {
				return stats, err
			}
			if found {
				err = facts.Decode(doc, &stats)
				return stats, err
			}
		}
		return stats, fmt.Errorf("%w: no local stats for %s", ErrNotEnoughData, c.Project.JobGroupID)
	})
}

// MarketStress returns the number of candidates per offer, scaled by the dataset
// denominator: denominator / offers-per-ten-candidates. Markets with zero offers report a
// large sentinel value; an absent offers count is not enough data.
func (c *Context) MarketStress() (float64, error) {
	return memoize(c, factMarketStress, func() (float64, error) {
		stats, err := c.LocalStats()
		if err != nil {
			return 0, err
		}
		denominator := stats.YearlyAvgOffersDenominator
		if denominator == nil || *denominator <= 0 {
			return 0, fmt.Errorf("%w: unknown offers denominator", ErrNotEnoughData)
		}
		offers := stats.YearlyAvgOffersPer10Candidates
		if offers == nil || *offers < 0 {
			return 0, fmt.Errorf("%w: unknown offers count", ErrNotEnoughData)
		}
		if *offers == 0 {
			return noOffersMarketStress, nil
		}
		return *denominator / *offers, nil
	})
}

func (c *Context) searchLength(at time.Time) (float64, error) {
	if c.Project.JobSearchHasNotStarted {
		return 0, nil
	}
	started := c.Project.JobSearchStartedAt
	if started.IsZero() {
		return 0, fmt.Errorf("%w: job search start unknown", ErrNotEnoughData)
	}
	months := at.Sub(started).Hours() / 24 / daysPerMonth
	if months < 0 {
		return 0, nil
	}
	return months, nil
}

// SearchLengthAtCreation returns the job search length in months when the project was
// created. Projects without a creation date are considered created now.
func (c *Context) SearchLengthAtCreation() (float64, error) {
	return memoize(c, factSearchLengthAtCreation, func() (float64, error) {
		created := c.Project.CreatedAt
		if created.IsZero() {
			created = c.now
		}
		return c.searchLength(created)
	})
}

// SearchLengthNow returns the job search length in months at evaluation time.
func (c *Context) SearchLengthNow() (float64, error) {
	return memoize(c, factSearchLengthNow, func() (float64, error) {
		return c.searchLength(c.now)
	})
}

// Age returns the user's age computed from the year of birth.
func (c *Context) Age() (int, error) {
	return memoize(c, factAge, func() (int, error) {
		if c.User.YearOfBirth == 0 {
			return 0, fmt.Errorf("%w: year of birth unknown", ErrNotEnoughData)
		}
		return c.now.Year() - c.User.YearOfBirth, nil
	})
}

// Translate returns the localized form of s for the user, using hint to pick a variant.
func (c *Context) Translate(s, hint string) string {
	translated, _ := Cached(c, "translate:"+hint+":"+s, func() (string, error) {
		return c.translator.Translate(s, c.User.Locale, hint), nil
	})
	return translated
}

func (c *Context) genderedJobName() string {
	if c.Project.JobName != "" {
		return c.Project.JobName
	}
	info, err := c.JobGroupInfo()
	if err != nil {
		return ""
	}
	switch {
	case c.User.Gender == GenderFeminine && info.FeminineName != "":
		return info.FeminineName
	case c.User.Gender == GenderMasculine && info.MasculineName != "":
		return info.MasculineName
	}
	return info.Name
}

// ofPrefix builds the French "de X" form, eliding before a vowel or a mute h.
func ofPrefix(name string) string {
	lowered := strings.ToLower(name)
	first, _ := utf8.DecodeRuneInString(lowered)
	if strings.ContainsRune("aeiouyhàâéèêëîïôûù", first) {
		return "d'" + lowered
	}
	return "de " + lowered
}

func (c *Context) templateVariables() map[string]string {
	variables, _ := memoize(c, factTemplateVariables, func() (map[string]string, error) {
		variables := make(map[string]string)
		set := func(name, value string) {
			if value != "" {
				variables[name] = value
			}
		}

		set("name", c.User.Name)
		set("departementId", c.Project.DepartementID)
		set("cityName", c.Project.CityName)
		if c.Project.CityName != "" {
			set("inCity", "à "+c.Project.CityName)
		}
		if jobName := c.genderedJobName(); jobName != "" {
			set("jobName", strings.ToLower(jobName))
			set("ofJobName", ofPrefix(jobName))
		}
		if info, err := c.JobGroupInfo(); err == nil {
			set("jobGroupName", info.Name)
		}
		if age, err := c.Age(); err == nil {
			set("age", strconv.Itoa(age))
		}
		return variables, nil
	})
	return variables
}

// PopulateTemplate translates template and replaces its %variable tokens with the
// project's values. A variable that cannot be populated is a hard error: the template is
// unusable for this project.
func (c *Context) PopulateTemplate(template string) (string, error) {
	translated := c.Translate(template, c.User.Gender)
	variables := c.templateVariables()

	var (
		builder strings.Builder
		last    int
	)
	for _, match := range templateVariablePattern.FindAllStringSubmatchIndex(translated, -1) {
		name := translated[match[2]:match[3]]
		value, found := variables[name]
		if !found {
			return "", fmt.Errorf("%w: %%%s in %q", ErrMissingTemplateVariable, name, template)
		}
		builder.WriteString(translated[last:match[0]])
		builder.WriteString(value)
		last = match[1]
	}
	builder.WriteString(translated[last:])
	return builder.String(), nil
}
