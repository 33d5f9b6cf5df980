package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/gtech-mulearn/mulearn/internal/db"
	"github.com/jackc/pgx/v5"
)

// Repositories holds all the repository instances bound to one connection
// or transaction
type Repositories struct {
	Users         IUserRepository
	Wallets       IWalletRepository
	Tokens        ITokenRepository
	Tasks         ITaskRepository
	Karma         IKarmaRepository
	Leaderboard   ILeaderboardRepository
	Circles       ICircleRepository
	Meetings      IMeetingRepository
	Vouchers      IVoucherRepository
	Organizations IOrganizationRepository
	Events        IEventRepository
	Integrations  IIntegrationRepository
	Stats         IStatsRepository
}

// NewRepositories initializes all repositories on q, which is either the
// pool or a transaction
func NewRepositories(q db.Querier) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(q),
		Wallets:       NewWalletRepository(q),
		Tokens:        NewTokenRepository(q),
		Tasks:         NewTaskRepository(q),
		Karma:         NewKarmaRepository(q),
		Leaderboard:   NewLeaderboardRepository(q),
		Circles:       NewCircleRepository(q),
		Meetings:      NewMeetingRepository(q),
		Vouchers:      NewVoucherRepository(q),
		Organizations: NewOrganizationRepository(q),
		Events:        NewEventRepository(q),
		Integrations:  NewIntegrationRepository(q),
		Stats:         NewStatsRepository(q),
	}
}

// TxFn runs with repositories bound to an open transaction
type TxFn func(ctx context.Context, repos *Repositories) error

// Transactor runs a unit of work in a single database transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFn) error
}

// PgTransactor implements Transactor on a pgx pool
type PgTransactor struct {
	conn db.TxBeginner
}

// NewTransactor creates a Transactor on conn
func NewTransactor(conn db.TxBeginner) *PgTransactor {
	return &PgTransactor{conn: conn}
}

// WithinTx commits when fn returns nil and rolls back otherwise
func (t *PgTransactor) WithinTx(ctx context.Context, fn TxFn) error {
	return db.WithTransaction(ctx, t.conn, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func buildErr(query string, err error) error {
	return fmt.Errorf("failed to build %s query: %w", query, err)
}

// countQuery turns a select builder into SELECT COUNT(*) over the same filter
func countQuery(q squirrel.SelectBuilder) squirrel.SelectBuilder {
	return q.RemoveColumns().RemoveLimit().RemoveOffset().Columns("COUNT(*)")
}
