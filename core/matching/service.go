package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"golang.org/x/sync/errgroup"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
	"github.com/janisrealty/janis/core/requirement"
)

var (
	// errors
	ErrUnknownKey = errors.New("unknown matching criterion")
)

const (
	DefaultLimit        = 10
	DefaultPersistLimit = 50
	recomputeWorkers    = 4

	matchesTTL = time.Hour
	alertsTTL  = 24 * time.Hour
)

type (
	Repository interface {
		ListWeights(ctx context.Context) ([]Weight, error)
		SaveWeight(ctx context.Context, w Weight) (Weight, error)
		// RecordEvent stores e together with the adjusted weights, all or nothing.
		RecordEvent(ctx context.Context, e Event, weights []Weight) (Event, error)
		// ReplaceMatches upserts matches on (requirement, property) and deletes the other matches
		// of the requirement. The stored matches are returned with their IDs.
		ReplaceMatches(ctx context.Context, requirementID int64, matches []Match) ([]Match, error)
		// ListMatches sorts by score descending.
		ListMatches(ctx context.Context, requirementID int64) ([]Match, error)
	}

	PropertySource interface {
		GetByID(ctx context.Context, id int64) (property.Property, error)
		Filter(ctx context.Context, filter property.QueryFilter, ordering []core.DBOrdering) ([]property.Property, error)
	}

	RequirementSource interface {
		Get(ctx context.Context, id int64) (requirement.Requirement, error)
		All(ctx context.Context) ([]requirement.Requirement, error)
	}

	NameLookup interface {
		Names(ctx context.Context, ids ...int64) (map[int64]string, error)
	}

	// Counter is satisfied by prometheus counters.
	Counter interface {
		Add(float64)
	}

	Service struct {
		repo         Repository
		properties   PropertySource
		requirements RequirementSource
		names        NameLookup
		cache        core.Cache
		bus          core.EventBus
		logger       core.Logger
		computed     Counter
	}
)

func NewService(
	repo Repository,
	properties PropertySource,
	requirements RequirementSource,
	names NameLookup,
	cache core.Cache,
	bus core.EventBus,
	logger core.Logger,
	computed Counter,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(properties, "properties"),
		vala.IsNotNil(requirements, "requirements"),
		vala.IsNotNil(names, "names"),
		vala.IsNotNil(cache, "cache"),
		vala.IsNotNil(bus, "bus"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{
		repo:         repo,
		properties:   properties,
		requirements: requirements,
		names:        names,
		cache:        cache,
		bus:          bus,
		logger:       logger,
		computed:     computed,
	}
}

func matchesKey(requirementID int64) string { return fmt.Sprintf("req_matches_%d", requirementID) }

func alertsKey(userID int64) string { return fmt.Sprintf("user_new_match_alerts_%d", userID) }

// Weights returns the effective weight of every criterion.
func (svc *Service) Weights(ctx context.Context) (Weights, error) {
	stored, err := svc.repo.ListWeights(ctx)
	if err != nil {
		return nil, err
	}
	return merge(stored), nil
}

func (svc *Service) SetWeight(ctx context.Context, w Weight) (Weight, error) {
	if _, ok := DefaultWeights()[w.Key]; !ok {
		return Weight{}, ErrUnknownKey
	}
	if w.Weight < 0 {
		return Weight{}, core.NewFieldError("weight", "must be 0 or greater")
	}
	return svc.repo.SaveWeight(ctx, w)
}

// subject resolves the district names of r.
func (svc *Service) subject(ctx context.Context, r requirement.Requirement) (Subject, error) {
	s := Subject{Requirement: r}
	ids := append([]int64(nil), r.DistrictIDs...)
	if r.DistrictID != nil {
		ids = append(ids, *r.DistrictID)
	}
	names, err := svc.names.Names(ctx, ids...)
	if err != nil {
		return Subject{}, err
	}
	if r.DistrictID != nil {
		s.DistrictName = names[*r.DistrictID]
	}
	for _, id := range r.DistrictIDs {
		if n, ok := names[id]; ok {
			s.DistrictNames = append(s.DistrictNames, n)
		}
	}
	return s, nil
}

// candidates returns the active non-draft listings, restricted to the requirement's type when set.
func (svc *Service) candidates(ctx context.Context, r requirement.Requirement) ([]property.Property, error) {
	return svc.properties.Filter(ctx, property.QueryFilter{PublicOnly: true, PropertyTypeID: r.PropertyTypeID}, nil)
}

// GetMatches scores every candidate against r and returns the best limit of them.
func (svc *Service) GetMatches(ctx context.Context, r requirement.Requirement, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	weights, err := svc.Weights(ctx)
	if err != nil {
		return nil, err
	}
	s, err := svc.subject(ctx, r)
	if err != nil {
		return nil, err
	}
	props, err := svc.candidates(ctx, r)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(props))
	for _, p := range props {
		score, details := Score(s, p, weights)
		results = append(results, Result{Property: p, Score: score, Details: details})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	if svc.computed != nil {
		svc.computed.Add(float64(len(results)))
	}
	return results, nil
}

// RecordPositiveMatch stores the outcome and nudges the weights of the criteria it confirms.
func (svc *Service) RecordPositiveMatch(ctx context.Context, r requirement.Requirement, p property.Property, metadata map[string]interface{}) (Event, error) {
	stored, err := svc.repo.ListWeights(ctx)
	if err != nil {
		return Event{}, err
	}
	s, err := svc.subject(ctx, r)
	if err != nil {
		return Event{}, err
	}
	score, details := Score(s, p, merge(stored))
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	evt := Event{
		RequirementID: r.ID,
		PropertyID:    p.ID,
		Score:         score,
		Details:       details,
		Metadata:      metadata,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.RecordEvent(ctx, evt, adjustWeights(stored, adjustments(s, p)))
}

// adjustWeights applies the deltas to the stored weights. Keys without a row start from 1 and no
// weight drops under minWeight.
func adjustWeights(stored []Weight, deltas map[string]float64) []Weight {
	current := make(map[string]float64, len(stored))
	for _, w := range stored {
		current[w.Key] = w.Weight
	}
	out := make([]Weight, 0, len(deltas))
	for k, d := range deltas {
		base, ok := current[k]
		if !ok {
			base = 1
		}
		nw := base + d
		if nw < minWeight {
			nw = minWeight
		}
		out = append(out, Weight{Key: k, Weight: nw})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// PersistMatches stores the best matches of r with a score of at least minScore, drops its other
// matches and announces each stored one.
func (svc *Service) PersistMatches(ctx context.Context, r requirement.Requirement, limit int, minScore float64) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultPersistLimit
	}
	results, err := svc.GetMatches(ctx, r, limit)
	if err != nil {
		return nil, err
	}
	return svc.persist(ctx, r, results, minScore)
}

func (svc *Service) persist(ctx context.Context, r requirement.Requirement, results []Result, minScore float64) ([]Match, error) {
	now := time.Now().UTC()
	matches := make([]Match, 0, len(results))
	for _, res := range results {
		if res.Score < minScore {
			continue
		}
		matches = append(matches, Match{
			RequirementID: r.ID,
			PropertyID:    res.Property.ID,
			Score:         res.Score,
			Details:       res.Details,
			ComputedAt:    now,
		})
	}
	matches, err := svc.repo.ReplaceMatches(ctx, r.ID, matches)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		evt := core.MatchStored{MatchID: m.ID, RequirementID: m.RequirementID, PropertyID: m.PropertyID, Score: m.Score}
		if err := svc.bus.Publish(core.SubjectMatchStored, evt); err != nil {
			svc.logger.Error("publishing stored match", "requirement_id", r.ID, "error", err)
		}
	}
	return matches, nil
}

// StoredMatches returns the persisted matches of a requirement.
func (svc *Service) StoredMatches(ctx context.Context, requirementID int64) ([]Match, error) {
	return svc.repo.ListMatches(ctx, requirementID)
}

// Recompute refreshes the cached and persisted matches of r. Unless the change only touched its
// links, the creator of r is alerted about the new matches.
func (svc *Service) Recompute(ctx context.Context, r requirement.Requirement, m2m bool) ([]Result, error) {
	results, err := svc.GetMatches(ctx, r, DefaultLimit)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(matchesKey(r.ID), results, matchesTTL)

	if !m2m && len(results) > 0 && r.CreatedByID != nil {
		alerts := make([]Alert, len(results))
		for i, res := range results {
			alerts[i] = Alert{RequirementID: r.ID, PropertyID: res.Property.ID, Score: res.Score}
		}
		svc.cache.Set(alertsKey(*r.CreatedByID), alerts, alertsTTL)
	}

	if _, err := svc.PersistMatches(ctx, r, DefaultPersistLimit, 0); err != nil {
		return nil, err
	}
	return results, nil
}

// CachedMatches returns the cached matches of r, computing them on a miss.
func (svc *Service) CachedMatches(ctx context.Context, r requirement.Requirement) ([]Result, error) {
	if v, ok := svc.cache.Get(matchesKey(r.ID)); ok {
		if results, ok := v.([]Result); ok {
			return results, nil
		}
	}
	results, err := svc.GetMatches(ctx, r, DefaultLimit)
	if err != nil {
		return nil, err
	}
	svc.cache.Set(matchesKey(r.ID), results, matchesTTL)
	return results, nil
}

// Alerts returns and clears the pending match alerts of a user.
func (svc *Service) Alerts(userID int64) []Alert {
	v, ok := svc.cache.Take(alertsKey(userID))
	if !ok {
		return []Alert{}
	}
	alerts, _ := v.([]Alert)
	if alerts == nil {
		return []Alert{}
	}
	return alerts
}

// RecomputeAll recomputes the matches of every requirement with bounded concurrency.
func (svc *Service) RecomputeAll(ctx context.Context) (int, error) {
	reqs, err := svc.requirements.All(ctx)
	if err != nil {
		return 0, err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeWorkers)
	for _, r := range reqs {
		r := r
		g.Go(func() error {
			_, err := svc.Recompute(ctx, r, true)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(reqs), nil
}

// HandleRequirementChanged recomputes the matches of the changed requirement.
func (svc *Service) HandleRequirementChanged(data []byte) {
	var evt core.RequirementChanged
	if err := json.Unmarshal(data, &evt); err != nil {
		svc.logger.Error("decoding requirement change", "error", err)
		return
	}
	ctx := context.Background()
	r, err := svc.requirements.Get(ctx, evt.RequirementID)
	if err != nil {
		svc.logger.Warn("requirement change for unknown requirement", "requirement_id", evt.RequirementID, "error", err)
		return
	}
	if _, err := svc.Recompute(ctx, r, evt.M2M); err != nil {
		svc.logger.Error("recomputing matches", "requirement_id", r.ID, "error", err)
	}
}

// Listen subscribes the service to requirement changes.
func (svc *Service) Listen() error {
	return svc.bus.Subscribe(core.SubjectRequirementChanged, svc.HandleRequirementChanged)
}
