//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"investgate/internal/application/models"
	"investgate/internal/application/store/postgres"
	"investgate/pkg/domain"
	"investgate/pkg/platform/sentinel"
	"investgate/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.pg.Pool)
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "applications"))
}

func newTestApplication(owner domain.UserID) *models.Application {
	now := time.Now().Truncate(time.Microsecond)
	return &models.Application{
		ID:               domain.ApplicationID(uuid.New()),
		OwnerID:          owner,
		Title:            "Port logistics hub",
		Sector:           "Infrastructure",
		InvestmentAmount: 2_000_000,
		Description:      "Bonded warehouse and cold chain",
		Status:           models.StatusSubmitted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *StoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	app := newTestApplication(domain.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.Title, got.Title)
	s.Equal(models.StatusSubmitted, got.Status)
}

func (s *StoreSuite) TestListScoping() {
	ctx := context.Background()
	alice := domain.UserID(uuid.New())
	s.Require().NoError(s.store.Create(ctx, newTestApplication(alice)))
	s.Require().NoError(s.store.Create(ctx, newTestApplication(alice)))
	s.Require().NoError(s.store.Create(ctx, newTestApplication(domain.UserID(uuid.New()))))

	mine, err := s.store.ListByOwner(ctx, alice)
	s.Require().NoError(err)
	s.Len(mine, 2)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StoreSuite) TestUpdateStatus() {
	ctx := context.Background()
	app := newTestApplication(domain.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	app.Status = models.StatusUnderReview
	app.UpdatedAt = time.Now().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Update(ctx, app))

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, got.Status)
}

func (s *StoreSuite) TestMissingApplication() {
	_, err := s.store.FindByID(context.Background(), domain.ApplicationID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Update(context.Background(), newTestApplication(domain.UserID(uuid.New())))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
