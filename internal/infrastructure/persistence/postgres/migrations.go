// Package postgres implements the PostgreSQL persistence layer of Unitex Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create profiles and experience ledger
-- Version: 001

CREATE TABLE IF NOT EXISTS profiles (
    user_id UUID PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(100) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'student',
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    streak INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('student', 'teacher', 'admin', 'parent')),
    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_streak CHECK (streak >= 0)
);

CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email);
CREATE INDEX IF NOT EXISTS idx_profiles_xp ON profiles(xp DESC, user_id);
CREATE INDEX IF NOT EXISTS idx_profiles_last_activity ON profiles(last_activity_at);

-- Append-only experience ledger
CREATE TABLE IF NOT EXISTS experience_events (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    amount INTEGER NOT NULL,
    reason VARCHAR(50) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT positive_amount CHECK (amount > 0)
);

CREATE INDEX IF NOT EXISTS idx_experience_events_user_date
    ON experience_events(user_id, created_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS experience_events;
DROP TABLE IF EXISTS profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE GAMIFICATION
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create missions, badges and rewards
-- Version: 002

CREATE TABLE IF NOT EXISTS missions (
    code VARCHAR(50) PRIMARY KEY,
    title VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    frequency VARCHAR(10) NOT NULL,
    target_value INTEGER NOT NULL,
    reward_points INTEGER NOT NULL DEFAULT 0,
    reward_badge VARCHAR(50) NOT NULL DEFAULT '',
    icon VARCHAR(50) NOT NULL DEFAULT '',
    color VARCHAR(20) NOT NULL DEFAULT '',
    active BOOLEAN NOT NULL DEFAULT TRUE,

    CONSTRAINT valid_frequency CHECK (frequency IN ('daily', 'weekly', 'once'))
);

CREATE INDEX IF NOT EXISTS idx_missions_active ON missions(active) WHERE active;

-- One row per (user, mission) pair
CREATE TABLE IF NOT EXISTS mission_states (
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    mission_code VARCHAR(50) NOT NULL REFERENCES missions(code) ON DELETE CASCADE,
    progress INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    last_reset DATE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, mission_code)
);

CREATE INDEX IF NOT EXISTS idx_mission_states_user ON mission_states(user_id);

CREATE TABLE IF NOT EXISTS badges (
    slug VARCHAR(50) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    rule VARCHAR(30) NOT NULL,
    threshold INTEGER NOT NULL DEFAULT 0,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    icon VARCHAR(50) NOT NULL DEFAULT '',
    color VARCHAR(20) NOT NULL DEFAULT ''
);

-- At most one award per (user, badge); the unique key is the idempotence guard
CREATE TABLE IF NOT EXISTS badge_awards (
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    badge_slug VARCHAR(50) NOT NULL REFERENCES badges(slug) ON DELETE CASCADE,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, badge_slug)
);

CREATE INDEX IF NOT EXISTS idx_badge_awards_user ON badge_awards(user_id, awarded_at DESC);

-- Legacy counter rewards kept for old platform data
CREATE TABLE IF NOT EXISTS rewards (
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, name)
);
`

const migration002Down = `
DROP TABLE IF EXISTS rewards;
DROP TABLE IF EXISTS badge_awards;
DROP TABLE IF EXISTS badges;
DROP TABLE IF EXISTS mission_states;
DROP TABLE IF EXISTS missions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CURRICULUM
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create subjects, lessons and learning records
-- Version: 003

CREATE TABLE IF NOT EXISTS subjects (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    slug VARCHAR(50) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS lessons (
    id BIGSERIAL PRIMARY KEY,
    subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    scheduled_on DATE NOT NULL,
    required BOOLEAN NOT NULL DEFAULT TRUE,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Canonical lesson order within a subject is (scheduled_on, id)
CREATE INDEX IF NOT EXISTS idx_lessons_subject_order ON lessons(subject_id, scheduled_on, id);

-- One row per (user, lesson); repeats only improve best_duration
CREATE TABLE IF NOT EXISTS lesson_completions (
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    lesson_id BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
    best_duration_seconds BIGINT NOT NULL DEFAULT 0,

    PRIMARY KEY (user_id, lesson_id)
);

CREATE INDEX IF NOT EXISTS idx_lesson_completions_user_date
    ON lesson_completions(user_id, completed_at);

CREATE TABLE IF NOT EXISTS quiz_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    quiz_id BIGINT NOT NULL,
    correct BOOLEAN NOT NULL,
    xp_earned INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user ON quiz_attempts(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user_correct
    ON quiz_attempts(user_id) WHERE correct;

CREATE TABLE IF NOT EXISTS project_submissions (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_project_submissions_user
    ON project_submissions(user_id, created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS project_submissions;
DROP TABLE IF EXISTS quiz_attempts;
DROP TABLE IF EXISTS lesson_completions;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS subjects;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create notifications and preferences
-- Version: 004

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    type VARCHAR(30) NOT NULL,
    recipient_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
    priority SMALLINT NOT NULL DEFAULT 2,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    title VARCHAR(200) NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    max_retries INTEGER NOT NULL DEFAULT 3,
    last_error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    sent_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_status CHECK (status IN ('pending', 'delivered', 'failed', 'skipped')),
    CONSTRAINT valid_priority CHECK (priority BETWEEN 1 AND 4)
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient
    ON notifications(recipient_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_pending
    ON notifications(created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_notifications_retry
    ON notifications(created_at) WHERE status = 'failed';

CREATE TABLE IF NOT EXISTS notification_preferences (
    user_id UUID PRIMARY KEY REFERENCES profiles(user_id) ON DELETE CASCADE,
    email_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    progress_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    learning_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    digest_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration004Down = `
DROP TABLE IF EXISTS notification_preferences;
DROP TABLE IF EXISTS notifications;
`
