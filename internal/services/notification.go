package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/pursue-app/pursue-backend/internal/clients/push"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/repos"
	"github.com/pursue-app/pursue-backend/internal/types"
)

//go:embed messages.yaml
var messagesYAML []byte

type messageCatalog struct {
	Titles map[string]string `yaml:"titles"`
	Gentle struct {
		Variants []string `yaml:"variants"`
	} `yaml:"gentle"`
	Supportive struct {
		MajorityDone string `yaml:"majority_done"`
		Streak       string `yaml:"streak"`
		Generic      string `yaml:"generic"`
	} `yaml:"supportive"`
	LastChance struct {
		StreakAtRisk string `yaml:"streak_at_risk"`
		GroupStreak  string `yaml:"group_streak"`
		LastOne      string `yaml:"last_one"`
		Generic      string `yaml:"generic"`
	} `yaml:"last_chance"`
}

// Notification is rendered copy ready for the delivery collaborator.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// NotificationService renders tier-specific reminder copy, dispatches it and
// records the history row synchronously (effectiveness is labeled later by
// the daily job).
type NotificationService interface {
	SendReminder(ctx context.Context, candidate *types.ReminderCandidate, tier string, social *types.SocialContext, localDate string, sentAt time.Time) (*types.ReminderHistory, error)
}

type notificationService struct {
	log     *logger.Logger
	history repos.ReminderHistoryRepo
	sender  push.Sender
	catalog *messageCatalog

	// rng only varies gentle-tier phrasing; injectable for deterministic tests.
	mu  sync.Mutex
	rng *rand.Rand
}

func NewNotificationService(baseLog *logger.Logger, history repos.ReminderHistoryRepo, sender push.Sender, rng *rand.Rand) (NotificationService, error) {
	catalog := &messageCatalog{}
	if err := yaml.Unmarshal(messagesYAML, catalog); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	if len(catalog.Gentle.Variants) == 0 {
		return nil, fmt.Errorf("message catalog has no gentle variants")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &notificationService{
		log:     baseLog.With("service", "NotificationService"),
		history: history,
		sender:  sender,
		catalog: catalog,
		rng:     rng,
	}, nil
}

func (s *notificationService) SendReminder(ctx context.Context, candidate *types.ReminderCandidate, tier string, social *types.SocialContext, localDate string, sentAt time.Time) (*types.ReminderHistory, error) {
	notification := s.buildNotification(tier, candidate.GoalTitle, social)

	if err := s.sender.SendNotificationToUser(ctx, candidate.UserID, notification.Title, notification.Body, notification.Data); err != nil {
		return nil, fmt.Errorf("dispatch reminder: %w", err)
	}

	snapshot, err := json.Marshal(social)
	if err != nil {
		return nil, fmt.Errorf("snapshot social context: %w", err)
	}
	entry := &types.ReminderHistory{
		UserID:          candidate.UserID,
		GoalID:          candidate.GoalID,
		Tier:            tier,
		SentAt:          sentAt.UTC(),
		SentAtLocalDate: localDate,
		UserTimezone:    candidate.UserTimezone,
		SocialContext:   datatypes.JSON(snapshot),
	}
	// History must be written even though effectiveness is unknown at send
	// time; the suppression loop depends on it.
	if _, err := s.history.Create(ctx, nil, []*types.ReminderHistory{entry}); err != nil {
		return nil, fmt.Errorf("record reminder history: %w", err)
	}
	return entry, nil
}

func (s *notificationService) buildNotification(tier, goalTitle string, social *types.SocialContext) Notification {
	body := ""
	switch tier {
	case types.TierSupportive:
		body = s.supportiveBody(social)
	case types.TierLastChance:
		body = s.lastChanceBody(social)
	default:
		body = s.gentleBody()
	}

	title := s.catalog.Titles[tier]
	if title == "" {
		title = goalTitle
	}

	replacer := messageReplacer(goalTitle, social)
	return Notification{
		Title: replacer.Replace(title),
		Body:  replacer.Replace(body),
		Data: map[string]string{
			"type": "reminder",
			"tier": tier,
		},
	}
}

func (s *notificationService) gentleBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	variants := s.catalog.Gentle.Variants
	return variants[s.rng.Intn(len(variants))]
}

// supportiveBody picks copy by context priority: majority of the group
// already done, then an active personal streak, then generic encouragement.
func (s *notificationService) supportiveBody(social *types.SocialContext) string {
	if social != nil && social.PercentComplete >= 50 {
		return s.catalog.Supportive.MajorityDone
	}
	if social != nil && social.UserStreak > 0 {
		return s.catalog.Supportive.Streak
	}
	return s.catalog.Supportive.Generic
}

// lastChanceBody priority: a long personal streak at risk, then a group
// streak at risk, then being the last member left, then generic urgency.
func (s *notificationService) lastChanceBody(social *types.SocialContext) string {
	if social != nil && social.UserStreak >= 7 {
		return s.catalog.LastChance.StreakAtRisk
	}
	if social != nil && social.GroupStreak > 0 {
		return s.catalog.LastChance.GroupStreak
	}
	if social != nil && social.TotalMembers > 0 && social.TotalMembers-social.LoggedToday == 1 {
		return s.catalog.LastChance.LastOne
	}
	return s.catalog.LastChance.Generic
}

func messageReplacer(goalTitle string, social *types.SocialContext) *strings.Replacer {
	groupName := ""
	percent := 0
	userStreak := 0
	groupStreak := 0
	topName := ""
	topStreak := 0
	if social != nil {
		groupName = social.GroupName
		percent = int(social.PercentComplete)
		userStreak = social.UserStreak
		groupStreak = social.GroupStreak
		if social.TopPerformer != nil {
			topName = social.TopPerformer.Name
			topStreak = social.TopPerformer.Streak
		}
	}
	return strings.NewReplacer(
		"{goal}", goalTitle,
		"{group}", groupName,
		"{percent}", strconv.Itoa(percent),
		"{streak}", strconv.Itoa(userStreak),
		"{group_streak}", strconv.Itoa(groupStreak),
		"{top_name}", topName,
		"{top_streak}", strconv.Itoa(topStreak),
	)
}
