package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mediaman/internal/model"
)

// PostgresAnnouncementRepo はPostgreSQLを使用したお知らせリポジトリ。
type PostgresAnnouncementRepo struct {
	db *sql.DB
}

// NewPostgresAnnouncementRepo はPostgresAnnouncementRepoを生成する。
func NewPostgresAnnouncementRepo(db *sql.DB) *PostgresAnnouncementRepo {
	return &PostgresAnnouncementRepo{db: db}
}

const announcementColumns = `id, guid_or_id, title, link, body, content_hash, published_at, fetched_at, created_at, updated_at`

func scanAnnouncement(row *sql.Row) (*model.Announcement, error) {
	a := &model.Announcement{}
	var guid, link sql.NullString
	var publishedAt sql.NullTime
	err := row.Scan(&a.ID, &guid, &a.Title, &link, &a.Body, &a.ContentHash, &publishedAt, &a.FetchedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.GuidOrID = guid.String
	a.Link = link.String
	if publishedAt.Valid {
		a.PublishedAt = &publishedAt.Time
	}
	return a, nil
}

// FindByGUID はguid_or_idでお知らせを検索する。見つからない場合はnilを返す。
func (r *PostgresAnnouncementRepo) FindByGUID(ctx context.Context, guid string) (*model.Announcement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE guid_or_id = $1`,
		guid,
	)
	a, err := scanAnnouncement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find announcement by guid: %w", err)
	}
	return a, nil
}

// FindByContentHash はcontent_hashでお知らせを検索する。見つからない場合はnilを返す。
func (r *PostgresAnnouncementRepo) FindByContentHash(ctx context.Context, contentHash string) (*model.Announcement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE content_hash = $1`,
		contentHash,
	)
	a, err := scanAnnouncement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find announcement by content hash: %w", err)
	}
	return a, nil
}

// Create は新規お知らせを作成する。
func (r *PostgresAnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	guid := sql.NullString{String: a.GuidOrID, Valid: a.GuidOrID != ""}
	link := sql.NullString{String: a.Link, Valid: a.Link != ""}
	var publishedAt sql.NullTime
	if a.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: *a.PublishedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO announcements (id, guid_or_id, title, link, body, content_hash, published_at, fetched_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		a.ID, guid, a.Title, link, a.Body, a.ContentHash, publishedAt, a.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert announcement: %w", err)
	}
	return nil
}

// Update は既存お知らせを上書き更新する。履歴は保持しない。
func (r *PostgresAnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error {
	link := sql.NullString{String: a.Link, Valid: a.Link != ""}
	var publishedAt sql.NullTime
	if a.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: *a.PublishedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE announcements
		 SET title = $2, link = $3, body = $4, content_hash = $5, published_at = $6, fetched_at = $7, updated_at = now()
		 WHERE id = $1`,
		a.ID, a.Title, link, a.Body, a.ContentHash, publishedAt, a.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	return nil
}

// ListRecent はお知らせをpublished_at降順（NULLは末尾）で最大limit件返す。
func (r *PostgresAnnouncementRepo) ListRecent(ctx context.Context, limit int) ([]*model.Announcement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+announcementColumns+`
		 FROM announcements
		 ORDER BY published_at DESC NULLS LAST, fetched_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []*model.Announcement
	for rows.Next() {
		a := &model.Announcement{}
		var guid, link sql.NullString
		var publishedAt sql.NullTime
		if err := rows.Scan(&a.ID, &guid, &a.Title, &link, &a.Body, &a.ContentHash, &publishedAt, &a.FetchedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		a.GuidOrID = guid.String
		a.Link = link.String
		if publishedAt.Valid {
			a.PublishedAt = &publishedAt.Time
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate announcements: %w", err)
	}

	return announcements, nil
}

// DeleteOlderThan はfetched_atがcutoffより古いお知らせを削除し、削除件数を返す。
func (r *PostgresAnnouncementRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM announcements WHERE fetched_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old announcements: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ AnnouncementRepository = (*PostgresAnnouncementRepo)(nil)
