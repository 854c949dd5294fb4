package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL DEFAULT '',
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		provider VARCHAR(50) NOT NULL,
		provider_id VARCHAR(255) NOT NULL,
		role VARCHAR(20) CHECK (role IN ('migrant', 'guide')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(provider, provider_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email))`,

	// user_id is kept as text: profiles reference users by the string form of the id.
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id TEXT NOT NULL UNIQUE,
		role VARCHAR(20) NOT NULL CHECK (role IN ('migrant', 'guide')),
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		current_location VARCHAR(255) NOT NULL DEFAULT '',
		target_location VARCHAR(255) NOT NULL DEFAULT '',
		visa_type VARCHAR(100) NOT NULL DEFAULT '',
		budget NUMERIC(12, 2) NOT NULL DEFAULT 0,
		specialization VARCHAR(255) NOT NULL DEFAULT '',
		hourly_rate NUMERIC(12, 2) NOT NULL DEFAULT 0,
		rating NUMERIC(3, 2) NOT NULL DEFAULT 0,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,

	`CREATE TABLE IF NOT EXISTS session_tabs (
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		tab_id VARCHAR(64) NOT NULL,
		user_id UUID REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		PRIMARY KEY (session_id, tab_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_session_tabs_expires_at ON session_tabs(expires_at)`,

	`CREATE TABLE IF NOT EXISTS guide_sessions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		guide_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		migrant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		purpose TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		budget NUMERIC(12, 2) NOT NULL DEFAULT 0,
		timeline VARCHAR(255) NOT NULL DEFAULT '',
		request_status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (request_status IN ('pending', 'accepted')),
		status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'scheduled', 'completed')),
		scheduled_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_guide_sessions_guide_id ON guide_sessions(guide_id)`,
	`CREATE INDEX IF NOT EXISTS idx_guide_sessions_migrant_id ON guide_sessions(migrant_id)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		file_id VARCHAR(64) NOT NULL UNIQUE,
		filename VARCHAR(500) NOT NULL,
		content_type VARCHAR(255) NOT NULL DEFAULT 'application/octet-stream',
		size BIGINT NOT NULL DEFAULT 0,
		kind VARCHAR(50) NOT NULL DEFAULT 'other',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents(owner_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type VARCHAR(50) NOT NULL,
		message TEXT NOT NULL,
		related_id UUID,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, recipient_id)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		guide_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		migrant_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(guide_id, migrant_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_reviews_guide_id ON reviews(guide_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
