package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/botboard/botboard/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// botColumns must match the Scan order in scanBot.
const botColumns = `id, name, avatar_url, banner_url, description, short_description, prefix,
	website, support_server, invite_link, tags, owner_id, owner_name, added_at,
	upvotes, server_count, certified`

// BotRepo implements domain.BotRepository backed by PostgreSQL.
type BotRepo struct {
	pool *pgxpool.Pool
}

func NewBotRepo(pool *pgxpool.Pool) *BotRepo {
	return &BotRepo{pool: pool}
}

func scanBot(row pgx.Row) (*domain.Bot, error) {
	var bot domain.Bot
	err := row.Scan(
		&bot.ID, &bot.Name, &bot.AvatarURL, &bot.BannerURL, &bot.Description,
		&bot.ShortDescription, &bot.Prefix, &bot.Website, &bot.SupportServer,
		&bot.InviteLink, &bot.Tags, &bot.OwnerID, &bot.OwnerName, &bot.AddedAt,
		&bot.Upvotes, &bot.ServerCount, &bot.Certified,
	)
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *BotRepo) List(ctx context.Context, filter domain.BotListFilter) ([]domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots`
	args := []any{}
	where := ``

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = fmt.Sprintf(` WHERE (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		if where == "" {
			where = fmt.Sprintf(` WHERE $%d = ANY(tags)`, len(args))
		} else {
			where += fmt.Sprintf(` AND $%d = ANY(tags)`, len(args))
		}
	}

	order := ` ORDER BY added_at DESC`
	switch filter.Sort {
	case domain.SortOldest:
		order = ` ORDER BY added_at ASC`
	case domain.SortPopular:
		order = ` ORDER BY upvotes DESC, added_at DESC`
	}

	rows, err := r.pool.Query(ctx, query+where+order, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	defer rows.Close()

	var bots []domain.Bot
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bot: %w", err)
		}
		bots = append(bots, *bot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bots: %w", err)
	}

	return bots, nil
}

func (r *BotRepo) GetByID(ctx context.Context, botID string) (*domain.Bot, error) {
	bot, err := scanBot(r.pool.QueryRow(ctx,
		`SELECT `+botColumns+` FROM bots WHERE id = $1`, botID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bot by ID: %w", err)
	}
	return bot, nil
}

func (r *BotRepo) Create(ctx context.Context, bot *domain.Bot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bots (id, name, avatar_url, banner_url, description, short_description,
			prefix, website, support_server, invite_link, tags, owner_id, owner_name,
			added_at, upvotes, server_count, certified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), 0, 0, FALSE)
	`, bot.ID, bot.Name, bot.AvatarURL, bot.BannerURL, bot.Description,
		bot.ShortDescription, bot.Prefix, bot.Website, bot.SupportServer,
		bot.InviteLink, bot.Tags, bot.OwnerID, bot.OwnerName)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrBotExists
	}
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	return nil
}

func (r *BotRepo) Update(ctx context.Context, botID string, update domain.BotUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bots
		SET description = $1, short_description = $2, prefix = $3, website = $4,
			support_server = $5, invite_link = $6, tags = $7
		WHERE id = $8
	`, update.Description, update.ShortDescription, update.Prefix, update.Website,
		update.SupportServer, update.InviteLink, update.Tags, botID)
	if err != nil {
		return fmt.Errorf("failed to update bot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBotNotFound
	}
	return nil
}

func (r *BotRepo) SetAdminFields(ctx context.Context, botID string, certified bool, serverCount int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bots SET certified = $1, server_count = $2 WHERE id = $3
	`, certified, serverCount, botID)
	if err != nil {
		return fmt.Errorf("failed to update admin fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBotNotFound
	}
	return nil
}

func (r *BotRepo) Delete(ctx context.Context, botID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bots WHERE id = $1`, botID)
	if err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBotNotFound
	}
	return nil
}

// IncrementUpvotes bumps the public upvote counter and returns the new
// count. Cooldown admission happens before this call; the increment itself
// is atomic in SQL.
func (r *BotRepo) IncrementUpvotes(ctx context.Context, botID string) (int, error) {
	var upvotes int
	err := r.pool.QueryRow(ctx, `
		UPDATE bots SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes
	`, botID).Scan(&upvotes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrBotNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment upvotes: %w", err)
	}
	return upvotes, nil
}
