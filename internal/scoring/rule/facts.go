package rule

import (
	"coach/internal/scoring"
)

// activationOf builds the CEL variables of a context. Unknown facts are left out of the
// maps, so that reading them fails instead of comparing against a zero value.
func activationOf(ctx *scoring.Context) map[string]any {
	user := map[string]any{
		"situation":    ctx.User.Situation,
		"frustrations": stringList(ctx.User.Frustrations),
	}
	setString(user, "name", ctx.User.Name)
	setString(user, "gender", ctx.User.Gender)
	setString(user, "locale", ctx.User.Locale)
	setString(user, "highestDegree", ctx.User.HighestDegree)
	if age, err := ctx.Age(); err == nil {
		user["age"] = int64(age)
	}

	project := map[string]any{
		"jobSearchHasNotStarted": ctx.Project.JobSearchHasNotStarted,
		"weeklyApplications":     int64(ctx.Project.WeeklyApplications),
		"weeklyOffers":           int64(ctx.Project.WeeklyOffers),
		"strategies":             stringList(ctx.Project.Strategies),
	}
	setString(project, "jobGroupId", ctx.Project.JobGroupID)
	setString(project, "jobName", ctx.Project.JobName)
	setString(project, "departementId", ctx.Project.DepartementID)
	setString(project, "cityId", ctx.Project.CityID)
	if ctx.Project.Seniority > 0 {
		project["seniority"] = int64(ctx.Project.Seniority)
	}
	if months, err := ctx.SearchLengthNow(); err == nil {
		project["searchLengthMonths"] = months
	}
	if months, err := ctx.SearchLengthAtCreation(); err == nil {
		project["searchLengthAtCreationMonths"] = months
	}

	market := map[string]any{}
	if stress, err := ctx.MarketStress(); err == nil {
		market["stress"] = stress
	}
	if stats, err := ctx.LocalStats(); err == nil {
		if stats.YearlyAvgOffersPer10Candidates != nil {
			market["offersPer10Candidates"] = *stats.YearlyAvgOffersPer10Candidates
		}
		if stats.UnemploymentDurationDays != nil {
			market["unemploymentDurationDays"] = int64(*stats.UnemploymentDurationDays)
		}
		if stats.NumJobOffersLastYear != nil {
			market["jobOffersLastYear"] = int64(*stats.NumJobOffersLastYear)
		}
	}
	if info, err := ctx.JobGroupInfo(); err == nil {
		market["jobGroupName"] = info.Name
		market["growthPercent"] = info.GrowthPercent
	}

	features := make(map[string]bool, len(ctx.Features))
	for name, enabled := range ctx.Features {
		features[name] = enabled
	}

	return map[string]any{
		"user":     user,
		"project":  project,
		"market":   market,
		"features": features,
	}
}

func setString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func stringList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
