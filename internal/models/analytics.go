package models

// AnalyticsResponse is the backend's aggregate for one (season, trainer).
type AnalyticsResponse struct {
	WinRate                        []float64          `json:"winRate"`
	NextRank                       []float64          `json:"nextRank"`
	YourPokemonStatsSummary        []PokemonUsageStat `json:"yourPokemonStatsSummary"`
	OpponentPokemonStatsSummary    []PokemonUsageStat `json:"opponentPokemonStatsSummary"`
	YourPokemonKnockOutSummary     []KnockOutStat     `json:"yourPokemonKnockOutSummary"`
	OpponentPokemonKnockOutSummary []KnockOutStat     `json:"opponentPokemonKnockOutSummary"`
}

// PokemonUsageStat covers both perspectives. Your own Pokémon carry the
// win-given-selected fields, opponents carry lose-given-selected.
// Rates are fractions in [0,1].
type PokemonUsageStat struct {
	PokemonName       string  `json:"pokemon_name"`
	InTeamCount       int     `json:"in_team_count"`
	InTeamRate        float64 `json:"in_team_rate"`
	InBattleCount     int     `json:"in_battle_count"`
	InBattleRate      float64 `json:"in_battle_rate"`
	HeadBattleCount   int     `json:"head_battle_count"`
	HeadBattleRate    float64 `json:"head_battle_rate"`
	InBattleWinCount  int     `json:"in_battle_win_count"`
	InBattleWinRate   float64 `json:"in_battle_win_rate"`
	InBattleLoseCount int     `json:"in_battle_lose_count"`
	InBattleLoseRate  float64 `json:"in_battle_lose_rate"`
}

func (p *PokemonUsageStat) UnmarshalJSON(data []byte) error {
	type Alias PokemonUsageStat
	return flexUnmarshal(data, (*Alias)(p))
}

// KnockOutStat counts how many times YourPokemonName knocked out
// OpponentPokemonName (or the reverse, for the opponent summary).
type KnockOutStat struct {
	YourPokemonName     string `json:"your_pokemon_name"`
	OpponentPokemonName string `json:"opponent_pokemon_name"`
	KnockOutCount       int    `json:"knock_out_count"`
}

func (k *KnockOutStat) UnmarshalJSON(data []byte) error {
	type Alias KnockOutStat
	return flexUnmarshal(data, (*Alias)(k))
}
