package listeners

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/events"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/eventbus"
)

const defaultGroupDelay = 2 * time.Second

// Events of one type from one actor arriving within the delay are sent as one notification,
// so a batch approval does not produce a burst of pushes.
type eventGroupKey struct {
	Type    string
	ActorID uint64
}

type eventGroup struct {
	events []events.SuggestionEvent
	timer  *time.Timer
}

type NotificationListener struct {
	notifier   services.NotifierInterface
	userRepo   repositories.UserRepositoryInterface
	groupDelay time.Duration
	logger     *zap.Logger
	groups     map[eventGroupKey]*eventGroup
	groupsMu   sync.Mutex
	pending    sync.WaitGroup
}

func NewNotificationListener(
	notifier services.NotifierInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		notifier:   notifier,
		userRepo:   userRepo,
		groupDelay: defaultGroupDelay,
		logger:     logger,
		groups:     make(map[eventGroupKey]*eventGroup),
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	for _, name := range []string{
		events.SuggestionSubmitted,
		events.SuggestionLevelApproved,
		events.SuggestionApproved,
		events.SuggestionRejected,
	} {
		bus.Subscribe(name, l.handleSuggestionEvent)
	}
	l.logger.Info("notification listener subscribed to suggestion events")
}

func (l *NotificationListener) handleSuggestionEvent(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.SuggestionEvent)
	if !ok {
		return nil
	}
	key := eventGroupKey{Type: e.Type, ActorID: e.ActorID}

	l.groupsMu.Lock()
	defer l.groupsMu.Unlock()

	group, exists := l.groups[key]
	if !exists {
		group = &eventGroup{}
		l.groups[key] = group
		l.pending.Add(1)
		group.timer = time.AfterFunc(l.groupDelay, func() {
			defer l.pending.Done()
			l.flush(context.Background(), key)
		})
	}
	group.events = append(group.events, e)
	return nil
}

// Flush sends every waiting group now. Used on shutdown.
func (l *NotificationListener) Flush(ctx context.Context) {
	l.groupsMu.Lock()
	keys := make([]eventGroupKey, 0, len(l.groups))
	for key, group := range l.groups {
		if group.timer.Stop() {
			l.pending.Done()
			keys = append(keys, key)
		}
	}
	l.groupsMu.Unlock()

	for _, key := range keys {
		l.flush(ctx, key)
	}
	l.pending.Wait()
}

func (l *NotificationListener) flush(ctx context.Context, key eventGroupKey) {
	l.groupsMu.Lock()
	group, exists := l.groups[key]
	if !exists {
		l.groupsMu.Unlock()
		return
	}
	delete(l.groups, key)
	l.groupsMu.Unlock()

	if len(group.events) == 0 {
		return
	}

	byRecipient, err := l.collectRecipients(ctx, group.events)
	if err != nil {
		l.logger.Error("failed to resolve notification recipients", zap.String("event", key.Type), zap.Error(err))
		return
	}

	userIDs := make([]uint64, 0, len(byRecipient))
	for id := range byRecipient {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	// Recipients that share the same set of suggestions get one Notify call.
	batches := make(map[string][]uint64)
	notices := make(map[string]services.Notice)
	for _, userID := range userIDs {
		evs := byRecipient[userID]
		notice := buildNotice(key.Type, evs)
		sig := noticeSignature(evs)
		batches[sig] = append(batches[sig], userID)
		notices[sig] = notice
	}
	for sig, recipients := range batches {
		if err := l.notifier.Notify(ctx, recipients, notices[sig]); err != nil {
			l.logger.Error("failed to deliver notification", zap.String("event", key.Type), zap.Error(err))
		}
	}
}

func noticeSignature(evs []events.SuggestionEvent) string {
	ids := make([]uint64, len(evs))
	for i, e := range evs {
		ids[i] = e.Suggestion.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return fmt.Sprint(ids)
}

// collectRecipients maps each recipient to the events that concern them. Approvers able to act
// at the next level hear about submissions and partial approvals; requesters hear the outcome.
// The actor is never notified about their own action.
func (l *NotificationListener) collectRecipients(ctx context.Context, evs []events.SuggestionEvent) (map[uint64][]events.SuggestionEvent, error) {
	out := make(map[uint64][]events.SuggestionEvent)
	approversByLevel := make(map[int][]entities.User)

	for _, e := range evs {
		s := e.Suggestion
		switch e.Type {
		case events.SuggestionSubmitted, events.SuggestionLevelApproved:
			level := s.CurrentLevel + 1
			approvers, ok := approversByLevel[level]
			if !ok {
				var err error
				if approvers, err = l.userRepo.FindApprovers(ctx, level); err != nil {
					return nil, err
				}
				approversByLevel[level] = approvers
			}
			for _, u := range approvers {
				if u.ID == e.ActorID || u.ID == s.RequestedBy {
					continue
				}
				out[u.ID] = append(out[u.ID], e)
			}
		case events.SuggestionApproved, events.SuggestionRejected:
			if s.RequestedBy != e.ActorID {
				out[s.RequestedBy] = append(out[s.RequestedBy], e)
			}
		}
	}
	return out, nil
}

func productLabel(product string) string {
	if label, ok := constants.ProductLabels[product]; ok {
		return label
	}
	return product
}

func effectivePrice(s entities.PriceSuggestion) string {
	if s.ApprovedPrice != nil {
		return s.ApprovedPrice.String()
	}
	return s.SuggestedPrice.String()
}

func describe(s entities.PriceSuggestion) string {
	return fmt.Sprintf("%s, %s: %s", s.StationName, productLabel(s.Product), effectivePrice(s))
}

func buildNotice(eventType string, evs []events.SuggestionEvent) services.Notice {
	var notice services.Notice
	if len(evs) == 1 {
		s := evs[0].Suggestion
		id := s.ID
		notice.SuggestionID = &id
	}

	first := evs[0].Suggestion
	switch eventType {
	case events.SuggestionSubmitted, events.SuggestionLevelApproved:
		notice.Type = constants.NotificationApprovalRequired
		if len(evs) == 1 {
			notice.Title = "Price suggestion awaiting approval"
			notice.Message = fmt.Sprintf("%s (margin %.2f%%), requested by %s, level %d of %d",
				describe(first), float64(first.MarginBps)/100, first.RequesterName,
				first.CurrentLevel+1, first.RequiredLevels)
		} else {
			notice.Title = fmt.Sprintf("%d price suggestions awaiting approval", len(evs))
			notice.Message = fmt.Sprintf("%s and %d more", describe(first), len(evs)-1)
		}
		if eventType == events.SuggestionLevelApproved {
			notice.Type = constants.NotificationLevelApproved
		}
	case events.SuggestionApproved:
		notice.Type = constants.NotificationApproved
		if len(evs) == 1 {
			notice.Title = "Price suggestion approved"
			notice.Message = describe(first)
		} else {
			notice.Title = fmt.Sprintf("%d price suggestions approved", len(evs))
			notice.Message = fmt.Sprintf("%s and %d more", describe(first), len(evs)-1)
		}
	case events.SuggestionRejected:
		notice.Type = constants.NotificationRejected
		if len(evs) == 1 {
			notice.Title = "Price suggestion rejected"
			notice.Message = describe(first)
			if c := evs[0].Comment; c != nil && *c != "" {
				notice.Message += fmt.Sprintf(": «%s»", *c)
			}
		} else {
			notice.Title = fmt.Sprintf("%d price suggestions rejected", len(evs))
			notice.Message = fmt.Sprintf("%s and %d more", describe(first), len(evs)-1)
		}
	}
	return notice
}
