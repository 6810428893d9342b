package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pario-ai/chatmeter/pkg/ingest"
	"github.com/pario-ai/chatmeter/pkg/meter"
	"github.com/pario-ai/chatmeter/pkg/models"
)

// decoder turns request params into a meter command.
type decoder func(ctx context.Context, s *Server, params json.RawMessage) (meter.Command, error)

var methods = map[string]decoder{
	"round.completed": decodeRound,
	"chat.get":        decodeGetChat,
	"chat.delete":     decodeDeleteChat,
	"stats.global":    decodeGlobalStats,
	"timers.status":   constant(meter.GetTimers{}),
	"timers.reset":    decodeResetTimer,
	"timers.set_end":  decodeSetEnd,
	"settings.get":    constant(meter.GetSettings{}),
	"settings.update": decodeSettings,
	"state.reset":     constant(meter.ResetAll{}),
	"state.export":    constant(meter.ExportAll{}),
	"state.import":    decodeImport,
}

// methodNames lists every request method, initialize included.
func methodNames() []string {
	names := []string{"initialize"}
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func constant(cmd meter.Command) decoder {
	return func(context.Context, *Server, json.RawMessage) (meter.Command, error) {
		return cmd, nil
	}
}

func decodeRound(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	in, err := ingest.ParseRoundInput(params)
	if err != nil {
		return nil, err
	}
	return meter.CompleteRound{Input: in}, nil
}

// param reads the first present key, accepting camelCase and snake_case.
func param(params json.RawMessage, keys ...string) gjson.Result {
	res := gjson.ParseBytes(params)
	for _, k := range keys {
		if v := res.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func chatID(params json.RawMessage) (string, error) {
	id := param(params, "chat_id", "chatId").String()
	if id == "" {
		return "", fmt.Errorf("chat_id is required")
	}
	return id, nil
}

func decodeGetChat(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	id, err := chatID(params)
	if err != nil {
		return nil, err
	}
	return meter.GetChat{ChatID: id}, nil
}

func decodeDeleteChat(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	id, err := chatID(params)
	if err != nil {
		return nil, err
	}
	return meter.DeleteChat{ChatID: id}, nil
}

func decodeGlobalStats(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	r, err := models.ParseRange(param(params, "range").String())
	if err != nil {
		return nil, err
	}
	return meter.GetGlobalStats{Range: r}, nil
}

func decodeResetTimer(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	kind, err := models.ParseWindowKind(param(params, "window", "kind").String())
	if err != nil {
		return nil, err
	}
	return meter.ResetTimer{Window: kind}, nil
}

// decodeSetEnd accepts end as an RFC 3339 string or epoch milliseconds.
func decodeSetEnd(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	v := param(params, "end", "end_time", "endTime")
	switch v.Type {
	case gjson.String:
		end, err := time.Parse(time.RFC3339, v.String())
		if err != nil {
			return nil, fmt.Errorf("end: %w", err)
		}
		return meter.SetWindowEnd{End: end}, nil
	case gjson.Number:
		return meter.SetWindowEnd{End: time.UnixMilli(v.Int())}, nil
	}
	return nil, fmt.Errorf("end is required")
}

// decodeSettings applies params on top of the current settings, so a
// partial update changes only the fields it names.
func decodeSettings(ctx context.Context, s *Server, params json.RawMessage) (meter.Command, error) {
	cur, err := s.meter.Dispatch(ctx, meter.GetSettings{})
	if err != nil {
		return nil, err
	}
	settings, ok := cur.(models.Settings)
	if !ok {
		return nil, fmt.Errorf("unexpected settings type %T", cur)
	}
	if err := json.Unmarshal(params, &settings); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return meter.UpdateSettings{Settings: settings}, nil
}

func decodeImport(_ context.Context, _ *Server, params json.RawMessage) (meter.Command, error) {
	if data := param(params, "state"); data.IsObject() {
		return meter.ImportAll{Data: json.RawMessage(data.Raw)}, nil
	}
	return meter.ImportAll{Data: params}, nil
}
