package telegram

import (
	"context"
	"encoding/json"
	"fmt"
)

// Bot API caps for profile texts. Longer inputs are cut, not rejected.
const (
	descriptionLimit      = 512
	shortDescriptionLimit = 120
)

// BotInfo is the subset of getMe this tool surfaces.
type BotInfo struct {
	ID                      int64  `json:"id"`
	Name                    string `json:"first_name"`
	Username                string `json:"username"`
	CanJoinGroups           bool   `json:"can_join_groups"`
	CanReadAllGroupMessages bool   `json:"can_read_all_group_messages"`
	SupportsInlineQueries   bool   `json:"supports_inline_queries"`
}

func (a *Adapter) Info(ctx context.Context) (BotInfo, error) {
	if err := ctx.Err(); err != nil {
		return BotInfo{}, err
	}
	data, err := a.bot.Raw("getMe", map[string]string{})
	if err != nil {
		return BotInfo{}, fmt.Errorf("getMe: %w", err)
	}
	var resp struct {
		Result BotInfo `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return BotInfo{}, fmt.Errorf("getMe: decode: %w", err)
	}
	return resp.Result, nil
}

func (a *Adapter) SetName(ctx context.Context, name string) error {
	return a.raw(ctx, "setMyName", map[string]string{"name": name})
}

func (a *Adapter) SetDescription(ctx context.Context, description string) error {
	return a.raw(ctx, "setMyDescription", map[string]string{
		"description": cutRunes(description, descriptionLimit),
	})
}

// SetAbout updates the short "about" description shown on the profile page.
func (a *Adapter) SetAbout(ctx context.Context, about string) error {
	return a.raw(ctx, "setMyShortDescription", map[string]string{
		"short_description": cutRunes(about, shortDescriptionLimit),
	})
}

func (a *Adapter) raw(ctx context.Context, method string, payload map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := a.bot.Raw(method, payload); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func cutRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
