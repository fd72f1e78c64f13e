package social

// League is a streak tier.
type League struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Min  int    `json:"min"`
}

// Leagues are ordered from the highest tier down.
var Leagues = []League{
	{ID: "titan", Name: "Titan League", Min: 100},
	{ID: "master", Name: "Master League", Min: 50},
	{ID: "elite", Name: "Elite League", Min: 30},
	{ID: "apprentice", Name: "Apprentice League", Min: 7},
	{ID: "novice", Name: "Novice League", Min: 0},
}

// LeagueFor returns the highest league whose minimum streak is met.
func LeagueFor(streak int) League {
	for _, l := range Leagues {
		if streak >= l.Min {
			return l
		}
	}
	return Leagues[len(Leagues)-1]
}

// NextLeague returns the league above the one streak qualifies for, or
// false at the top.
func NextLeague(streak int) (League, bool) {
	for i, l := range Leagues {
		if streak >= l.Min {
			if i == 0 {
				return League{}, false
			}
			return Leagues[i-1], true
		}
	}
	return Leagues[len(Leagues)-2], true
}
