package community

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"speakeasy.club/internal/dbstore"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using PostgreSQL. It holds the raw pool
// rather than a DBTX because the counter-bearing mutations run inside
// transactions of their own.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Profiles -----------------------------------------------------------------

const profileColumns = `id, subject_id, display_name, avatar, bio, post_count, comment_count, created_at, updated_at`

func (s *PostgresStore) CreateProfile(ctx context.Context, p *Profile) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from community_profiles where subject_id = $1)`, p.SubjectID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check profile: %w", err)
	}
	if exists {
		return ErrConflict
	}
	err := s.db.QueryRowContext(ctx, `
		insert into community_profiles (subject_id, display_name, avatar, bio)
		values ($1, $2, $3, $4)
		returning id, created_at, updated_at`,
		p.SubjectID, p.DisplayName, p.Avatar, p.Bio,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ProfileBySubject(ctx context.Context, subjectID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from community_profiles where subject_id = $1`, subjectID)
	return scanProfile(row)
}

func (s *PostgresStore) ProfileByID(ctx context.Context, id int64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from community_profiles where id = $1`, id)
	return scanProfile(row)
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id int64, fields ProfileFields) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		update community_profiles set
			display_name = coalesce($2, display_name),
			avatar       = coalesce($3, avatar),
			bio          = coalesce($4, bio),
			updated_at   = now()
		where id = $1
		returning `+profileColumns,
		id, fields.DisplayName, fields.Avatar, fields.Bio)
	return scanProfile(row)
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+profileColumns+` from community_profiles order by created_at asc`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Spaces -------------------------------------------------------------------

const spaceColumns = `id, slug, name, description, post_count, created_at`

func (s *PostgresStore) CreateSpace(ctx context.Context, space *Space) error {
	err := s.db.QueryRowContext(ctx, `
		insert into community_spaces (slug, name, description)
		values ($1, $2, $3)
		on conflict (slug) do update set name = excluded.name, description = excluded.description
		returning id, created_at`,
		space.Slug, space.Name, space.Description,
	).Scan(&space.ID, &space.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert space: %w", err)
	}
	return nil
}

func (s *PostgresStore) SpaceBySlug(ctx context.Context, slug string) (*Space, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+spaceColumns+` from community_spaces where slug = $1`, slug)
	var sp Space
	if err := row.Scan(&sp.ID, &sp.Slug, &sp.Name, &sp.Description, &sp.PostCount, &sp.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get space: %w", err)
	}
	return &sp, nil
}

func (s *PostgresStore) ListSpaces(ctx context.Context) ([]*Space, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+spaceColumns+` from community_spaces order by id asc`)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	var spaces []*Space
	for rows.Next() {
		var sp Space
		if err := rows.Scan(&sp.ID, &sp.Slug, &sp.Name, &sp.Description, &sp.PostCount, &sp.CreatedAt); err != nil {
			return nil, err
		}
		spaces = append(spaces, &sp)
	}
	return spaces, rows.Err()
}

// Posts --------------------------------------------------------------------

const postColumns = `p.id, p.space_id, p.profile_id, pr.display_name, p.title, p.body, p.like_count, p.comment_count, p.view_count, p.created_at, p.updated_at`

func (s *PostgresStore) CreatePost(ctx context.Context, p *Post) error {
	return dbstore.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbstore.DBTX) error {
		err := tx.QueryRowContext(ctx, `
			insert into community_posts (space_id, profile_id, title, body)
			values ($1, $2, $3, $4)
			returning id, created_at, updated_at`,
			p.SpaceID, p.ProfileID, p.Title, p.Body,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`update community_spaces set post_count = post_count + 1 where id = $1`, p.SpaceID); err != nil {
			return fmt.Errorf("bump space count: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`update community_profiles set post_count = post_count + 1, updated_at = now() where id = $1`, p.ProfileID); err != nil {
			return fmt.Errorf("bump profile count: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) GetPost(ctx context.Context, id int64) (*Post, error) {
	// The view counter rides on the read; one statement keeps it atomic.
	row := s.db.QueryRowContext(ctx, `
		with bumped as (
			update community_posts set view_count = view_count + 1
			where id = $1
			returning *
		)
		select `+postColumns+`
		from bumped p
		join community_profiles pr on pr.id = p.profile_id`,
		id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context, spaceID int64, limit, offset int) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+postColumns+`
		from community_posts p
		join community_profiles pr on pr.id = p.profile_id
		where p.space_id = $1
		order by p.created_at desc
		limit $2 offset $3`,
		spaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Comments -----------------------------------------------------------------

func (s *PostgresStore) CreateComment(ctx context.Context, c *Comment) error {
	return dbstore.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbstore.DBTX) error {
		err := tx.QueryRowContext(ctx, `
			insert into community_comments (post_id, profile_id, body)
			values ($1, $2, $3)
			returning id, created_at`,
			c.PostID, c.ProfileID, c.Body,
		).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`update community_posts set comment_count = comment_count + 1 where id = $1`, c.PostID); err != nil {
			return fmt.Errorf("bump post count: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`update community_profiles set comment_count = comment_count + 1, updated_at = now() where id = $1`, c.ProfileID); err != nil {
			return fmt.Errorf("bump profile count: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) ListComments(ctx context.Context, postID int64) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		select c.id, c.post_id, c.profile_id, pr.display_name, c.body, c.created_at
		from community_comments c
		join community_profiles pr on pr.id = c.profile_id
		where c.post_id = $1
		order by c.created_at asc`,
		postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.ProfileID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.QueryRowContext(ctx, `
		select id, post_id, profile_id, body, created_at
		from community_comments where id = $1`,
		id).Scan(&c.ID, &c.PostID, &c.ProfileID, &c.Body, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id int64) (*Comment, error) {
	var deleted Comment
	err := dbstore.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbstore.DBTX) error {
		err := tx.QueryRowContext(ctx, `
			delete from community_comments where id = $1
			returning id, post_id, profile_id, body, created_at`,
			id,
		).Scan(&deleted.ID, &deleted.PostID, &deleted.ProfileID, &deleted.Body, &deleted.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`update community_posts set comment_count = comment_count - 1 where id = $1 and comment_count > 0`, deleted.PostID); err != nil {
			return fmt.Errorf("drop post count: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`update community_profiles set comment_count = comment_count - 1, updated_at = now() where id = $1 and comment_count > 0`, deleted.ProfileID); err != nil {
			return fmt.Errorf("drop profile count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// Likes --------------------------------------------------------------------

func (s *PostgresStore) ToggleLike(ctx context.Context, postID, profileID int64) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := dbstore.WithTx(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx dbstore.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`delete from community_likes where post_id = $1 and profile_id = $2`, postID, profileID)
		if err != nil {
			return fmt.Errorf("remove like: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if removed > 0 {
			liked = false
			err = tx.QueryRowContext(ctx, `
				update community_posts set like_count = like_count - 1
				where id = $1 and like_count > 0
				returning like_count`, postID).Scan(&count)
		} else {
			if _, err := tx.ExecContext(ctx,
				`insert into community_likes (post_id, profile_id) values ($1, $2)`, postID, profileID); err != nil {
				return fmt.Errorf("insert like: %w", err)
			}
			liked = true
			err = tx.QueryRowContext(ctx, `
				update community_posts set like_count = like_count + 1
				where id = $1
				returning like_count`, postID).Scan(&count)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("adjust like count: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// Scan helpers -------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.SubjectID, &p.DisplayName, &p.Avatar, &p.Bio, &p.PostCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func scanPost(row rowScanner) (*Post, error) {
	var p Post
	if err := row.Scan(&p.ID, &p.SpaceID, &p.ProfileID, &p.AuthorName, &p.Title, &p.Body, &p.LikeCount, &p.CommentCount, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
