package command

import (
	"context"
	"sync"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// In-memory fakes for command handler tests.

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[shared.UserID]*profile.Profile
	events   []profile.ExperienceEvent
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[shared.UserID]*profile.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; ok {
		return profile.ErrProfileAlreadyExists
	}
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID shared.UserID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			return p.Clone(), nil
		}
	}
	return nil, profile.ErrProfileNotFound
}

func (r *fakeProfileRepo) Update(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; !ok {
		return profile.ErrProfileNotFound
	}
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *fakeProfileRepo) AddExperience(_ context.Context, userID shared.UserID, mutate func(p *profile.Profile) (profile.LevelUpResult, error)) (profile.LevelUpResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return profile.LevelUpResult{}, profile.ErrProfileNotFound
	}
	result, err := mutate(p)
	return result, err
}

func (r *fakeProfileRepo) SaveExperienceEvent(_ context.Context, event profile.ExperienceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeProfileRepo) GetExperienceEvents(_ context.Context, userID shared.UserID, limit int) ([]profile.ExperienceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []profile.ExperienceEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].UserID == userID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) GetTopByXP(_ context.Context, limit int) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*profile.Profile
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].XP > out[i].XP {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProfileRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles), nil
}

type missionStateKey struct {
	user shared.UserID
	code shared.Slug
}

type fakeMissionRepo struct {
	mu       sync.Mutex
	missions map[shared.Slug]*mission.Mission
	states   map[missionStateKey]*mission.State
}

func newFakeMissionRepo() *fakeMissionRepo {
	return &fakeMissionRepo{
		missions: make(map[shared.Slug]*mission.Mission),
		states:   make(map[missionStateKey]*mission.State),
	}
}

func (r *fakeMissionRepo) EnsureMission(_ context.Context, m *mission.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[m.Code]; !ok {
		r.missions[m.Code] = m
	}
	return nil
}

func (r *fakeMissionRepo) GetMission(_ context.Context, code shared.Slug) (*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[code]
	if !ok {
		return nil, mission.ErrMissionNotFound
	}
	return m, nil
}

func (r *fakeMissionRepo) ListActive(_ context.Context) ([]*mission.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*mission.Mission
	for _, m := range r.missions {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMissionRepo) GetOrCreateState(_ context.Context, userID shared.UserID, code shared.Slug) (*mission.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := missionStateKey{user: userID, code: code}
	st, ok := r.states[key]
	if !ok {
		st = mission.NewState(userID, code)
		r.states[key] = st
	}
	return st, nil
}

func (r *fakeMissionRepo) SaveState(_ context.Context, st *mission.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[missionStateKey{user: st.UserID, code: st.MissionCode}] = st
	return nil
}

func (r *fakeMissionRepo) ListStates(_ context.Context, userID shared.UserID) ([]*mission.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*mission.State
	for key, st := range r.states {
		if key.user == userID {
			out = append(out, st)
		}
	}
	return out, nil
}

type awardKey struct {
	user shared.UserID
	slug shared.Slug
}

type fakeBadgeRepo struct {
	mu      sync.Mutex
	badges  map[shared.Slug]*badge.Badge
	awards  map[awardKey]badge.Award
	rewards map[string]badge.Reward
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{
		badges:  make(map[shared.Slug]*badge.Badge),
		awards:  make(map[awardKey]badge.Award),
		rewards: make(map[string]badge.Reward),
	}
}

func (r *fakeBadgeRepo) EnsureBadge(_ context.Context, b *badge.Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.badges[b.Slug]; !ok {
		r.badges[b.Slug] = b
	}
	return nil
}

func (r *fakeBadgeRepo) GetBadge(_ context.Context, slug shared.Slug) (*badge.Badge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.badges[slug]
	if !ok {
		return nil, badge.ErrBadgeNotFound
	}
	return b, nil
}

func (r *fakeBadgeRepo) EnsureAward(_ context.Context, award badge.Award) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey{user: award.UserID, slug: award.BadgeSlug}
	if _, ok := r.awards[key]; ok {
		return false, nil
	}
	r.awards[key] = award
	return true, nil
}

func (r *fakeBadgeRepo) ListAwards(_ context.Context, userID shared.UserID) ([]badge.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []badge.Award
	for key, a := range r.awards {
		if key.user == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) ListAwardedSlugs(_ context.Context, userID shared.UserID) (map[shared.Slug]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[shared.Slug]bool)
	for key := range r.awards {
		if key.user == userID {
			out[key.slug] = true
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) EnsureReward(_ context.Context, reward badge.Reward) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reward.UserID.String() + "|" + reward.Name
	if _, ok := r.rewards[key]; ok {
		return false, nil
	}
	r.rewards[key] = reward
	return true, nil
}

type fakeLessonRepo struct {
	mu       sync.Mutex
	subjects map[int64]*lesson.Subject
	lessons  map[shared.LessonID]*lesson.Lesson
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{
		subjects: make(map[int64]*lesson.Subject),
		lessons:  make(map[shared.LessonID]*lesson.Lesson),
	}
}

func (r *fakeLessonRepo) CreateSubject(_ context.Context, s *lesson.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[s.ID] = s
	return nil
}

func (r *fakeLessonRepo) GetSubject(_ context.Context, id int64) (*lesson.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subjects[id]
	if !ok {
		return nil, lesson.ErrSubjectNotFound
	}
	return s, nil
}

func (r *fakeLessonRepo) GetSubjectBySlug(_ context.Context, slug shared.Slug) (*lesson.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subjects {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, lesson.ErrSubjectNotFound
}

func (r *fakeLessonRepo) ListSubjects(_ context.Context) ([]*lesson.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*lesson.Subject
	for _, s := range r.subjects {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeLessonRepo) CreateLesson(_ context.Context, l *lesson.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons[l.ID] = l
	return nil
}

func (r *fakeLessonRepo) GetLesson(_ context.Context, id shared.LessonID) (*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lessons[id]
	if !ok {
		return nil, lesson.ErrLessonNotFound
	}
	return l, nil
}

func (r *fakeLessonRepo) ListBySubject(_ context.Context, subjectID int64) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*lesson.Lesson
	for _, l := range r.lessons {
		if l.SubjectID == subjectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLessonRepo) ListAll(_ context.Context) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*lesson.Lesson
	for _, l := range r.lessons {
		out = append(out, l)
	}
	return out, nil
}

type completionKey struct {
	user shared.UserID
	id   shared.LessonID
}

type fakeCompletionRepo struct {
	mu          sync.Mutex
	completions map[completionKey]*lesson.Completion
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{completions: make(map[completionKey]*lesson.Completion)}
}

func (r *fakeCompletionRepo) Upsert(_ context.Context, userID shared.UserID, lessonID shared.LessonID, completedAt time.Time, duration time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := completionKey{user: userID, id: lessonID}
	if existing, ok := r.completions[key]; ok {
		existing.Improve(duration)
		return false, nil
	}
	c, err := lesson.NewCompletion(userID, lessonID, completedAt, duration)
	if err != nil {
		return false, err
	}
	r.completions[key] = c
	return true, nil
}

func (r *fakeCompletionRepo) Get(_ context.Context, userID shared.UserID, lessonID shared.LessonID) (*lesson.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.completions[completionKey{user: userID, id: lessonID}]
	if !ok {
		return nil, lesson.ErrLessonNotFound
	}
	return c, nil
}

func (r *fakeCompletionRepo) ListCompletedIDs(_ context.Context, userID shared.UserID) (map[shared.LessonID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[shared.LessonID]bool)
	for key := range r.completions {
		if key.user == userID {
			out[key.id] = true
		}
	}
	return out, nil
}

func (r *fakeCompletionRepo) CountByUser(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for key := range r.completions {
		if key.user == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCompletionRepo) CountCompletedToday(_ context.Context, userID shared.UserID, day shared.Date) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for key, c := range r.completions {
		if key.user == userID && shared.DateOf(c.CompletedAt).Equal(day) {
			count++
		}
	}
	return count, nil
}

type fakePreferencesRepo struct {
	mu    sync.Mutex
	prefs map[shared.UserID]*notification.Preferences
}

func newFakePreferencesRepo() *fakePreferencesRepo {
	return &fakePreferencesRepo{prefs: make(map[shared.UserID]*notification.Preferences)}
}

func (r *fakePreferencesRepo) Get(_ context.Context, userID shared.UserID) (*notification.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[userID]
	if !ok {
		return notification.DefaultPreferences(userID, time.Now()), nil
	}
	return p, nil
}

func (r *fakePreferencesRepo) Save(_ context.Context, p *notification.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[p.UserID] = p
	return nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
