package backend

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/pokebattlelogger/dashboard-api/internal/models"
)

func trainerQuery(trainerID string) url.Values {
	return url.Values{"trainer_id": {trainerID}}
}

func battleQuery(battleID string) url.Values {
	return url.Values{"battle_id": {battleID}}
}

func (c *Client) RecentSummary(ctx context.Context, trainerID string) (*models.RecentSummary, error) {
	return get[*models.RecentSummary](ctx, c, "/api/v1/recent_battle_summary", trainerQuery(trainerID))
}

func (c *Client) BattleLog(ctx context.Context, trainerID string, season, page, size int) ([]models.BattleLogEntry, error) {
	q := url.Values{
		"trainer_id": {trainerID},
		"season":     {strconv.Itoa(season)},
		"page":       {strconv.Itoa(page)},
		"size":       {strconv.Itoa(size)},
	}
	return get[[]models.BattleLogEntry](ctx, c, "/api/v1/battle_log", q)
}

func (c *Client) BattleLogCount(ctx context.Context, trainerID string, season int) (int, error) {
	q := url.Values{
		"trainer_id": {trainerID},
		"season":     {strconv.Itoa(season)},
	}
	n, err := get[models.FlexInt](ctx, c, "/api/v1/battle_log_count", q)
	return int(n), err
}

func (c *Client) Analytics(ctx context.Context, season int, trainerID string) (*models.AnalyticsResponse, error) {
	q := url.Values{
		"season":     {strconv.Itoa(season)},
		"trainer_id": {trainerID},
	}
	return get[*models.AnalyticsResponse](ctx, c, "/api/v1/analytics", q)
}

func (c *Client) InBattleLog(ctx context.Context, battleID string) ([]models.InBattleLogEntry, error) {
	return get[[]models.InBattleLogEntry](ctx, c, "/api/v1/in_battle_log", battleQuery(battleID))
}

func (c *Client) MessageLog(ctx context.Context, battleID string) ([]models.MessageLogEntry, error) {
	return get[[]models.MessageLogEntry](ctx, c, "/api/v1/in_battle_message_log", battleQuery(battleID))
}

// MessageFullLog returns the complete message log untouched, for export.
func (c *Client) MessageFullLog(ctx context.Context, battleID string) (json.RawMessage, error) {
	return get[json.RawMessage](ctx, c, "/api/v1/in_battle_message_full_log", battleQuery(battleID))
}

func (c *Client) FaintedLog(ctx context.Context, battleID string) ([]models.FaintedLogEntry, error) {
	return get[[]models.FaintedLogEntry](ctx, c, "/api/v1/fainted_pokemon_log", battleQuery(battleID))
}

func (c *Client) UpdateMemo(ctx context.Context, battleID, memo string) error {
	_, err := post[json.RawMessage](ctx, c, "/api/v1/update_memo", models.UpdateMemoRequest{
		BattleID: battleID,
		Memo:     memo,
	})
	return err
}

// SaveNewTrainer registers a trainer. The backend ignores known ids.
func (c *Client) SaveNewTrainer(ctx context.Context, trainerID string) error {
	_, err := post[json.RawMessage](ctx, c, "/api/v1/save_new_trainer", models.SaveTrainerRequest{TrainerID: trainerID})
	return err
}

func (c *Client) Seasons(ctx context.Context) ([]models.Season, error) {
	return get[[]models.Season](ctx, c, "/api/v1/get_seasons", nil)
}

// TrainerIDInDB maps an auth subject to the backend's numeric trainer id,
// which keys object storage paths.
func (c *Client) TrainerIDInDB(ctx context.Context, trainerID string) (int, error) {
	n, err := get[models.FlexInt](ctx, c, "/api/v1/get_trainer_id_in_DB", trainerQuery(trainerID))
	return int(n), err
}

func (c *Client) CheckVideoFormat(ctx context.Context, videoID string) (*models.VideoFormat, error) {
	return get[*models.VideoFormat](ctx, c, "/api/v1/check_video_format", url.Values{"video_id": {videoID}})
}

func (c *Client) VideoStatusList(ctx context.Context, trainerID string) ([]models.VideoStatus, error) {
	return get[[]models.VideoStatus](ctx, c, "/api/v1/get_battle_video_status_list", trainerQuery(trainerID))
}

func (c *Client) VideoDetailStatusLog(ctx context.Context, videoID string) ([]string, error) {
	return get[[]string](ctx, c, "/api/v1/get_battle_video_detail_status_log", url.Values{"video_id": {videoID}})
}

func (c *Client) SetLabels(ctx context.Context, req models.SetLabelsRequest) (json.RawMessage, error) {
	return post[json.RawMessage](ctx, c, "/api/v1/set_label_to_unknown_pokemon_images", req)
}
