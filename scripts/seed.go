// Command seed fills the analytics store with a few weeks of sample
// conversations so the dashboard has something to show.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/database"
	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	"github.com/Noah-Banjo/lr-schoolbot/pkg/config"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

type turn struct {
	query    string
	response string
	feedback int
}

type visit struct {
	user      string
	userAgent string
	daysAgo   int
	turns     []turn
}

var visits = []visit{
	{"teacher-1", desktopUA, 20, []turn{
		{"When did Central High integrate in 1957?", "Nine Black students enrolled at Central High in September 1957 under federal protection.", services.FeedbackHelpful},
		{"Who was Daisy Bates?", "Daisy Bates led the Arkansas NAACP and advised the Little Rock Nine throughout the crisis.", 0},
		{"Why did Governor Orval Faubus call the National Guard?", "Faubus said he acted to keep the peace, and the Guard blocked the students from entering.", services.FeedbackHelpful},
	}},
	{"student-1", iphoneUA, 14, []turn{
		{"Dunbar yearbook", "Dunbar yearbooks are held by the Dunbar alumni association and the Butler Center.", 0},
		{"Where is Dunbar High School located?", "Dunbar stands at 1100 Wright Avenue in Little Rock.", services.FeedbackHelpful},
	}},
	{"teacher-1", desktopUA, 9, []turn{
		{"Compare Dunbar and Central High in the 1950s", "Dunbar served Black students with a celebrated faculty while Central was the city's white high school.", 0},
		{"Explain the Lost Year when schools closed", "In 1958 Little Rock's high schools were closed for the whole year to avoid integration.", services.FeedbackHelpful},
	}},
	{"researcher-1", firefoxUA, 5, []turn{
		{"Is there a digital archive with primary source evidence from 1957?", "I'm not sure about specific archives, but the Central High museum keeps oral histories.", services.FeedbackNotHelpful},
		{"Is there a digital archive with primary sources from 1957?", "The Library of Congress and the Butler Center both publish digitized 1957 newspapers.", services.FeedbackHelpful},
	}},
	{"student-2", ipadUA, 2, []turn{
		{"Who was Ernest Green?", "Ernest Green was the first Black student to graduate from Central High, in 1958.", 0},
		{"Thank you, that was great!", "You're welcome! Ask me anything else about Little Rock's schools.", 0},
	}},
	{"student-1", iphoneUA, 0, []turn{
		{"How did the Little Rock Nine get to school on the first day?", "On September 25, 1957 soldiers of the 101st Airborne escorted them inside.", services.FeedbackHelpful},
	}},
}

// clock advances only when told to, so seeded timestamps are reproducible.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *clock) Set(t time.Time)         { c.now = t }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("lr-schoolbot-seed", cfg.Env)

	if os.Getenv("RESET_DATA") == "true" {
		resetData(cfg)
	}

	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open analytics storage")
	}
	defer store.Close()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	clk := &clock{}
	// Seed names map to generated ids; a first visit has no id yet and
	// counts as a new user.
	userIDs := make(map[string]string)

	for _, v := range visits {
		clk.Set(today.AddDate(0, 0, -v.daysAgo).Add(15 * time.Hour))
		tracker := services.NewSessionTracker(store, services.WithClock(clk.Now))

		if _, err := tracker.StartSession(ctx, services.ClientInfo{UserID: userIDs[v.user], UserAgent: v.userAgent}); err != nil {
			log.Fatal().Err(err).Str("user", v.user).Msg("Failed to start session")
		}
		userIDs[v.user] = tracker.UserID()

		for _, t := range v.turns {
			clk.Advance(20 * time.Second)
			start := clk.Now()
			clk.Advance(2 * time.Second)

			id, err := tracker.TrackInteraction(ctx, services.InteractionInput{
				Query:     t.query,
				Response:  t.response,
				StartTime: start,
				EndTime:   clk.Now(),
			})
			if err != nil {
				log.Error().Err(err).Str("query", t.query).Msg("Failed to track interaction")
				continue
			}
			if t.feedback != 0 {
				if err := tracker.TrackFeedback(ctx, id, t.feedback); err != nil {
					log.Error().Err(err).Str("interaction_id", id).Msg("Failed to record feedback")
				}
			}
		}

		clk.Advance(time.Minute)
		if err := tracker.EndSession(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to end session")
		}
	}

	log.Info().Int("sessions", len(visits)).Str("backend", cfg.Storage.Backend).Msg("Seeding completed")
}

// resetData removes file-backed data. PostgreSQL tables are left alone.
func resetData(cfg *config.Config) {
	var path string
	switch cfg.Storage.Backend {
	case config.StorageJSON:
		path = cfg.Storage.DataDir
	case config.StorageSQLite:
		path = cfg.Storage.SQLitePath
	default:
		log.Warn().Str("backend", cfg.Storage.Backend).Msg("RESET_DATA is not supported for this backend; seeding on top of existing data")
		return
	}

	log.Info().Str("path", path).Msg("RESET_DATA=true detected, removing existing analytics data")
	if err := os.RemoveAll(path); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset analytics data")
	}
}
