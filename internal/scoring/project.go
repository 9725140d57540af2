package scoring

import "time"

// Employment situations of a user.
const (
	SituationUnemployed = "UNEMPLOYED"
	SituationEmployed   = "EMPLOYED"
	SituationStudent    = "STUDENT"
)

// Genders used as translation hints.
const (
	GenderFeminine  = "FEMININE"
	GenderMasculine = "MASCULINE"
)

// User is the owner of the evaluated project.
type User struct {
	Name          string   `yaml:"name"`
	Gender        string   `yaml:"gender"`
	YearOfBirth   int      `yaml:"yearOfBirth"`
	Locale        string   `yaml:"locale"`
	Situation     string   `yaml:"situation"`
	HighestDegree string   `yaml:"highestDegree"`
	Frustrations  []string `yaml:"frustrations"`
}

// Project is the job search being evaluated.
type Project struct {
	ID                     string    `yaml:"id"`
	JobGroupID             string    `yaml:"jobGroupId"`
	JobName                string    `yaml:"jobName"`
	DepartementID          string    `yaml:"departementId"`
	CityID                 string    `yaml:"cityId"`
	CityName               string    `yaml:"cityName"`
	CreatedAt              time.Time `yaml:"createdAt"`
	JobSearchStartedAt     time.Time `yaml:"jobSearchStartedAt"`
	JobSearchHasNotStarted bool      `yaml:"jobSearchHasNotStarted"`
	// Seniority goes from 1 (intern) to 5 (expert); 0 means unknown.
	Seniority          int      `yaml:"seniority"`
	WeeklyApplications int      `yaml:"weeklyApplications"`
	WeeklyOffers       int      `yaml:"weeklyOffers"`
	Strategies         []string `yaml:"openedStrategies"`
}

// Features holds the feature flags and experiments enabled for the user.
type Features map[string]bool

// Enabled reports whether the flag is on. A nil set has every flag off.
func (f Features) Enabled(name string) bool {
	return f[name]
}
