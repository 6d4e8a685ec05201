package query

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/unitex-school/unitex-hub/internal/domain/badge"
	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/lesson"
	"github.com/unitex-school/unitex-hub/internal/domain/mission"
	"github.com/unitex-school/unitex-hub/internal/domain/profile"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
)

// In-memory fakes for the read side. Queries never mutate, so the fakes
// only need the load paths to be faithful.

// ─── profiles ────────────────────────────────────────────────────────────────

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[shared.UserID]*profile.Profile
	events   map[shared.UserID][]profile.ExperienceEvent
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[shared.UserID]*profile.Profile),
		events:   make(map[shared.UserID][]profile.ExperienceEvent),
	}
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
	return mutate(p)
}

func (r *fakeProfileRepo) SaveExperienceEvent(_ context.Context, event profile.ExperienceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.UserID] = append(r.events[event.UserID], event)
	return nil
}

func (r *fakeProfileRepo) GetExperienceEvents(_ context.Context, userID shared.UserID, limit int) ([]profile.ExperienceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[userID]
	// Newest first, like the SQL implementation.
	out := make([]profile.ExperienceEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProfileRepo) GetTopByXP(_ context.Context, limit int) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	top := make([]*profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		top = append(top, p.Clone())
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].XP != top[j].XP {
			return top[i].XP > top[j].XP
		}
		return top[i].UserID < top[j].UserID
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (r *fakeProfileRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles), nil
}

// ─── leaderboard cache ───────────────────────────────────────────────────────

type fakeLeaderboardCache struct {
	mu      sync.Mutex
	members []leaderboard.Member
}

func (c *fakeLeaderboardCache) UpdateScore(_ context.Context, member leaderboard.Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.members {
		if m.UserID == member.UserID {
			c.members[i] = member
			c.resort()
			return nil
		}
	}
	c.members = append(c.members, member)
	c.resort()
	return nil
}

func (c *fakeLeaderboardCache) Top(_ context.Context, limit int) ([]leaderboard.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]leaderboard.Member, len(c.members))
	copy(out, c.members)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeLeaderboardCache) RankOf(_ context.Context, userID shared.UserID) (leaderboard.Rank, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.members {
		if m.UserID == userID {
			return leaderboard.Rank(i + 1), nil
		}
	}
	return 0, leaderboard.ErrNotRanked
}

func (c *fakeLeaderboardCache) Size(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members), nil
}

func (c *fakeLeaderboardCache) Rebuild(_ context.Context, members []leaderboard.Member) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members = append([]leaderboard.Member(nil), members...)
	c.resort()
	return nil
}

func (c *fakeLeaderboardCache) resort() {
	c.members = leaderboard.RankMembers(c.members)
}

// ─── lessons ─────────────────────────────────────────────────────────────────

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
	out := make([]*lesson.Subject, 0, len(r.subjects))
	for _, s := range r.subjects {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
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
	out := make([]*lesson.Lesson, 0)
	for _, l := range r.lessons {
		if l.SubjectID == subjectID {
			out = append(out, l)
		}
	}
	sortLessons(out)
	return out, nil
}

func (r *fakeLessonRepo) ListAll(_ context.Context) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*lesson.Lesson, 0, len(r.lessons))
	for _, l := range r.lessons {
		out = append(out, l)
	}
	sortLessons(out)
	return out, nil
}

func sortLessons(lessons []*lesson.Lesson) {
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].SubjectID != lessons[j].SubjectID {
			return lessons[i].SubjectID < lessons[j].SubjectID
		}
		return lessons[i].Before(lessons[j])
	})
}

type fakeCompletionRepo struct {
	mu        sync.Mutex
	completed map[shared.UserID]map[shared.LessonID]*lesson.Completion
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{completed: make(map[shared.UserID]map[shared.LessonID]*lesson.Completion)}
}

func (r *fakeCompletionRepo) complete(userID shared.UserID, lessonID shared.LessonID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed[userID] == nil {
		r.completed[userID] = make(map[shared.LessonID]*lesson.Completion)
	}
	r.completed[userID][lessonID] = &lesson.Completion{UserID: userID, LessonID: lessonID, CompletedAt: at}
}

func (r *fakeCompletionRepo) Upsert(_ context.Context, userID shared.UserID, lessonID shared.LessonID, completedAt time.Time, _ time.Duration) (bool, error) {
	r.complete(userID, lessonID, completedAt)
	return true, nil
}

func (r *fakeCompletionRepo) Get(_ context.Context, userID shared.UserID, lessonID shared.LessonID) (*lesson.Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.completed[userID][lessonID]
	if !ok {
		return nil, lesson.ErrLessonNotFound
	}
	return c, nil
}

func (r *fakeCompletionRepo) ListCompletedIDs(_ context.Context, userID shared.UserID) (map[shared.LessonID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[shared.LessonID]bool, len(r.completed[userID]))
	for id := range r.completed[userID] {
		out[id] = true
	}
	return out, nil
}

func (r *fakeCompletionRepo) CountByUser(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed[userID]), nil
}

func (r *fakeCompletionRepo) CountCompletedToday(_ context.Context, userID shared.UserID, day shared.Date) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.completed[userID] {
		if shared.DateOf(c.CompletedAt).Equal(day) {
			count++
		}
	}
	return count, nil
}

// ─── missions ────────────────────────────────────────────────────────────────

type missionStateKey struct {
	userID shared.UserID
	code   shared.Slug
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
	out := make([]*mission.Mission, 0, len(r.missions))
	for _, m := range r.missions {
		if m.Active {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *fakeMissionRepo) GetOrCreateState(_ context.Context, userID shared.UserID, code shared.Slug) (*mission.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := missionStateKey{userID: userID, code: code}
	if st, ok := r.states[key]; ok {
		return st, nil
	}
	st := mission.NewState(userID, code)
	r.states[key] = st
	return st, nil
}

func (r *fakeMissionRepo) SaveState(_ context.Context, st *mission.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[missionStateKey{userID: st.UserID, code: st.MissionCode}] = st
	return nil
}

func (r *fakeMissionRepo) ListStates(_ context.Context, userID shared.UserID) ([]*mission.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mission.State, 0)
	for key, st := range r.states {
		if key.userID == userID {
			out = append(out, st)
		}
	}
	return out, nil
}

// ─── badges ──────────────────────────────────────────────────────────────────

type fakeBadgeRepo struct {
	mu     sync.Mutex
	badges map[shared.Slug]*badge.Badge
	awards []badge.Award
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{badges: make(map[shared.Slug]*badge.Badge)}
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
	for _, a := range r.awards {
		if a.UserID == award.UserID && a.BadgeSlug == award.BadgeSlug {
			return false, nil
		}
	}
	r.awards = append(r.awards, award)
	return true, nil
}

func (r *fakeBadgeRepo) ListAwards(_ context.Context, userID shared.UserID) ([]badge.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]badge.Award, 0)
	for _, a := range r.awards {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AwardedAt.After(out[j].AwardedAt) })
	return out, nil
}

func (r *fakeBadgeRepo) ListAwardedSlugs(_ context.Context, userID shared.UserID) (map[shared.Slug]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[shared.Slug]bool)
	for _, a := range r.awards {
		if a.UserID == userID {
			out[a.BadgeSlug] = true
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) EnsureReward(_ context.Context, _ badge.Reward) (bool, error) {
	return false, nil
}
