package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/tatianab/grave-master/internal/config"
	"github.com/tatianab/grave-master/internal/engine"
	"github.com/tatianab/grave-master/internal/store"
)

const maxTurns = 10

func main() {
	ctx := context.Background()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if err := cfg.RequireAPIKey(); err != nil {
		logger.Fatal("missing API key", zap.Error(err))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	// The Grave Master
	narrator, err := engine.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		logger.Fatal("failed to create narrator", zap.Error(err))
	}
	defer narrator.Close()
	eng := engine.New(narrator, st, *cfg, logger)

	// The player
	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		logger.Fatal("failed to create player client", zap.Error(err))
	}
	defer playerClient.Close()
	playerModel := playerClient.GenerativeModel(cfg.Model)

	fmt.Println("--- Descending as Suzerain with a party ---")
	view, err := eng.NewConversation(ctx, engine.NewGameOptions{Preset: engine.PresetSuzerain, Party: true})
	if err != nil {
		logger.Fatal("failed to start conversation", zap.Error(err))
	}
	fmt.Printf("Conversation: %s\n%s\n\n", view.ID, view.Response)

	var history []string
	for turn := 1; turn <= maxTurns; turn++ {
		fmt.Printf("--- Turn %d ---\n", turn)

		action := getPlayerAction(ctx, playerModel, view.Snapshot, history)
		fmt.Printf("Player Action: %s\n", action)

		next, err := eng.ProcessTurn(ctx, view.ID, action)
		if err != nil {
			fmt.Printf("Error processing turn: %v\n", err)
			break
		}
		if next.Rejected {
			fmt.Printf("Rejected: %s\n\n", next.Response)
			history = append(history, fmt.Sprintf("Action: %s\nRejected: %s", action, next.Response))
			continue
		}
		view = next

		fmt.Printf("Grave Master: %s\n", view.Response)
		s := view.State
		fmt.Printf("Position: %s, Rooms visited: %d, Inventory: %v\n\n", s.Position, len(s.Graph.Visited), s.Inventory)
		history = append(history, fmt.Sprintf("Action: %s\nOutcome: %s", action, view.Response))
	}

	selected, err := eng.Context(ctx, view.ID, "where have we been")
	if err == nil {
		fmt.Printf("--- Retrieval would recall %d earlier turns ---\n", len(selected))
	}
}

func getPlayerAction(ctx context.Context, model *genai.GenerativeModel, snapshot string, history []string) string {
	if len(history) > 4 {
		history = history[len(history)-4:]
	}

	prompt := fmt.Sprintf(`You are playing a text adventure in the underworld.

Game state:
%s

Recent turns:
%s

Choose your next action. You may move with a direction (north, up, southwest...),
"search room", "take <item>", "drop <item>", "equip <item>", or say anything else.
Prefer exits listed in the game state. Return ONLY the action string.`,
		snapshot,
		strings.Join(history, "\n\n"),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "search room"
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "look around"
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}
