//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/clovalink/clovalink-server/internal/model"
	repo "github.com/clovalink/clovalink-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "clovalink_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/clovalink_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func createEmployee(ctx context.Context, t *testing.T, er *repo.EmployeeRepository, email string) model.Employee {
	t.Helper()
	now := time.Now()
	employee, err := er.Create(ctx, model.Employee{
		ID:           uuid.New(),
		CompanyID:    uuid.New(),
		Name:         "Test Employee",
		Email:        email,
		Role:         model.RoleUser,
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return employee
}

func TestRepositories_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	t.Run("employee_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		employee := createEmployee(ctx, t, er, "employee@example.com")

		byEmail, err := er.GetByEmail(ctx, employee.Email)
		require.NoError(t, err)
		require.Equal(t, employee.ID, byEmail.ID)

		byID, err := er.GetByID(ctx, employee.ID)
		require.NoError(t, err)
		require.Equal(t, employee.Email, byID.Email)

		hashes := [][]byte{[]byte("h1"), []byte("h2")}
		require.NoError(t, er.EnableTOTP(ctx, employee.ID, "SECRET", hashes))

		enabled, err := er.GetByID(ctx, employee.ID)
		require.NoError(t, err)
		require.True(t, enabled.TOTPEnabled)
		require.Equal(t, "SECRET", enabled.TOTPSecret)
		require.Len(t, enabled.BackupCodes, 2)

		require.NoError(t, er.RemoveBackupCode(ctx, employee.ID, []byte("h1")))
		// Removing the same code twice must fail so a backup code
		// authenticates exactly once.
		require.ErrorIs(t, er.RemoveBackupCode(ctx, employee.ID, []byte("h1")), model.ErrNotFound)

		require.NoError(t, er.DisableTOTP(ctx, employee.ID))
		disabled, err := er.GetByID(ctx, employee.ID)
		require.NoError(t, err)
		require.False(t, disabled.TOTPEnabled)
		require.Empty(t, disabled.BackupCodes)

		require.NoError(t, er.SetPublicKey(ctx, employee.ID, []byte("pk")))
	})

	t.Run("passkey_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		pr := repo.NewPasskeyRepository(conn)
		employee := createEmployee(ctx, t, er, "passkey@example.com")

		now := time.Now()
		passkey := model.Passkey{
			ID:           uuid.New(),
			EmployeeID:   employee.ID,
			CredentialID: []byte("credential-1"),
			PublicKey:    []byte("cose-key"),
			Counter:      0,
			DeviceName:   "Laptop",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		saved, err := pr.Create(ctx, passkey)
		require.NoError(t, err)
		require.Equal(t, passkey.ID, saved.ID)

		// A credential ID is unique across all accounts.
		_, err = pr.Create(ctx, model.Passkey{
			ID:           uuid.New(),
			EmployeeID:   employee.ID,
			CredentialID: []byte("credential-1"),
			PublicKey:    []byte("cose-key"),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		require.ErrorIs(t, err, model.ErrDuplicateCredential)

		byCredential, err := pr.GetByCredentialID(ctx, []byte("credential-1"))
		require.NoError(t, err)
		require.Equal(t, passkey.ID, byCredential.ID)

		require.NoError(t, pr.UpdateCounter(ctx, passkey.ID, 0, 5, time.Now()))
		// Stale CAS means another authentication advanced the counter first.
		require.ErrorIs(t, pr.UpdateCounter(ctx, passkey.ID, 0, 6, time.Now()), model.ErrPossibleClone)

		list, err := pr.GetByEmployeeID(ctx, employee.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, pr.Delete(ctx, passkey.ID, employee.ID))
		require.ErrorIs(t, pr.Delete(ctx, passkey.ID, employee.ID), model.ErrNotFound)
	})

	t.Run("download_link_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		dr := repo.NewDownloadLinkRepository(conn)
		employee := createEmployee(ctx, t, er, "links@example.com")

		now := time.Now()
		link := model.DownloadLink{
			ID:         uuid.New(),
			Token:      "download-token-1",
			Target:     model.LinkTarget{Kind: model.TargetDocument, ID: uuid.New()},
			EmployeeID: employee.ID,
			CompanyID:  employee.CompanyID,
			ExpiresAt:  now.Add(24 * time.Hour),
			MaxUses:    2,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		_, err := dr.Create(ctx, link)
		require.NoError(t, err)

		first, err := dr.Redeem(ctx, link.Token, time.Now())
		require.NoError(t, err)
		require.Equal(t, 1, first.UseCount)
		require.False(t, first.Used)

		second, err := dr.Redeem(ctx, link.Token, time.Now())
		require.NoError(t, err)
		require.Equal(t, 2, second.UseCount)
		require.True(t, second.Used)

		_, err = dr.Redeem(ctx, link.Token, time.Now())
		require.ErrorIs(t, err, model.ErrLinkUsed)

		expired := link
		expired.ID = uuid.New()
		expired.Token = "download-token-expired"
		expired.ExpiresAt = now.Add(-time.Hour)
		_, err = dr.Create(ctx, expired)
		require.NoError(t, err)

		_, err = dr.Redeem(ctx, expired.Token, time.Now())
		require.ErrorIs(t, err, model.ErrLinkExpired)

		list, err := dr.ListByCompany(ctx, employee.CompanyID)
		require.NoError(t, err)
		require.Len(t, list, 2)

		deleted, err := dr.DeleteUsedBefore(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		require.Equal(t, link.ID, deleted[0].ID)
	})

	t.Run("download_link_sweep_by_creation_time", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		dr := repo.NewDownloadLinkRepository(conn)
		employee := createEmployee(ctx, t, er, "sweep@example.com")

		// Created well past the retention window, redeemed just now. The
		// sweep keys off creation time, so a late redemption must not keep
		// the link alive.
		now := time.Now()
		link := model.DownloadLink{
			ID:         uuid.New(),
			Token:      "download-token-stale",
			Target:     model.LinkTarget{Kind: model.TargetDocument, ID: uuid.New()},
			EmployeeID: employee.ID,
			CompanyID:  employee.CompanyID,
			ExpiresAt:  now.Add(24 * time.Hour),
			MaxUses:    1,
			CreatedAt:  now.Add(-10 * 24 * time.Hour),
			UpdatedAt:  now.Add(-10 * 24 * time.Hour),
		}
		_, err := dr.Create(ctx, link)
		require.NoError(t, err)

		redeemed, err := dr.Redeem(ctx, link.Token, now)
		require.NoError(t, err)
		require.True(t, redeemed.Used)

		deleted, err := dr.DeleteUsedBefore(ctx, now.Add(-3*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		require.Equal(t, link.ID, deleted[0].ID)
	})

	t.Run("upload_link_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		fr := repo.NewFolderRepository(conn)
		ur := repo.NewUploadLinkRepository(conn)
		employee := createEmployee(ctx, t, er, "uploads@example.com")

		now := time.Now()
		link := model.UploadLink{
			ID:         uuid.New(),
			Token:      "upload-token-1",
			Name:       "incoming",
			EmployeeID: employee.ID,
			CompanyID:  employee.CompanyID,
			ExpiresAt:  now.Add(24 * time.Hour),
			MaxUses:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		_, err := ur.Create(ctx, link)
		require.NoError(t, err)

		folder, err := fr.Create(ctx, model.Folder{
			ID:          uuid.New(),
			CompanyID:   employee.CompanyID,
			Name:        "incoming",
			CreatedByID: employee.ID,
			CreatedAt:   now,
		})
		require.NoError(t, err)

		require.NoError(t, ur.SetFolderID(ctx, link.ID, folder.ID))
		pinned, err := ur.GetByToken(ctx, link.Token)
		require.NoError(t, err)
		require.NotNil(t, pinned.FolderID)
		require.Equal(t, folder.ID, *pinned.FolderID)

		redeemed, err := ur.Redeem(ctx, link.Token, time.Now())
		require.NoError(t, err)
		require.True(t, redeemed.Used)
	})

	t.Run("document_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		fr := repo.NewFolderRepository(conn)
		docs := repo.NewDocumentRepository(conn)
		employee := createEmployee(ctx, t, er, "documents@example.com")

		now := time.Now()
		folder, err := fr.Create(ctx, model.Folder{
			ID:          uuid.New(),
			CompanyID:   employee.CompanyID,
			Name:        "contracts",
			CreatedByID: employee.ID,
			CreatedAt:   now,
		})
		require.NoError(t, err)

		byName, err := fr.GetByNameAndCompany(ctx, "contracts", employee.CompanyID)
		require.NoError(t, err)
		require.Equal(t, folder.ID, byName.ID)

		document := model.Document{
			ID:           uuid.New(),
			CompanyID:    employee.CompanyID,
			FolderID:     &folder.ID,
			Name:         "contract.pdf",
			MimeType:     "application/pdf",
			Size:         42,
			WrappedKey:   []byte("wrapped"),
			ChunkSize:    4 << 20,
			ChunkCount:   2,
			UploadedByID: employee.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		saved, err := docs.Create(ctx, document)
		require.NoError(t, err)

		chunks := []model.Chunk{
			{DocumentID: saved.ID, Index: 0, ObjectKey: "k0", Nonce: []byte("n0"), Hash: []byte("h0"), Size: 21},
			{DocumentID: saved.ID, Index: 1, ObjectKey: "k1", Nonce: []byte("n1"), Hash: []byte("h1"), Size: 21},
		}
		require.NoError(t, docs.CreateChunks(ctx, chunks))

		got, err := docs.GetChunks(ctx, saved.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, 0, got[0].Index)
		require.Equal(t, 1, got[1].Index)

		list, err := docs.ListByFolder(ctx, folder.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, docs.SoftDelete(ctx, saved.ID))
		_, err = docs.GetByID(ctx, saved.ID)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("activity_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		ar := repo.NewActivityRepository(conn)
		employee := createEmployee(ctx, t, er, "activities@example.com")

		require.NoError(t, ar.Create(ctx, model.Activity{
			ID:          uuid.New(),
			Type:        model.ActivityLogin,
			Description: "Logged in",
			EmployeeID:  employee.ID,
			CompanyID:   employee.CompanyID,
			CreatedAt:   time.Now(),
		}))

		list, err := ar.ListByCompany(ctx, employee.CompanyID, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)

		deleted, err := ar.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.GreaterOrEqual(t, deleted, int64(1))
	})

	t.Run("refresh_token_repository", func(t *testing.T) {
		er := repo.NewEmployeeRepository(conn)
		rr := repo.NewRefreshTokenRepository(conn)
		employee := createEmployee(ctx, t, er, "tokens@example.com")

		now := time.Now()
		rt := model.RefreshToken{
			ID:         uuid.New(),
			JTI:        uuid.NewString(),
			EmployeeID: employee.ID,
			TokenHash:  []byte("hash"),
			IssuedAt:   now,
			ExpiresAt:  now.Add(time.Hour),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		require.NoError(t, rr.Create(ctx, rt))

		got, err := rr.GetByJTI(ctx, rt.JTI)
		require.NoError(t, err)
		require.Equal(t, rt.EmployeeID, got.EmployeeID)
		require.Nil(t, got.RevokedAt)

		require.NoError(t, rr.RevokeByJTI(ctx, rt.JTI))
		revoked, err := rr.GetByJTI(ctx, rt.JTI)
		require.NoError(t, err)
		require.NotNil(t, revoked.RevokedAt)

		require.NoError(t, rr.RevokeAllByEmployee(ctx, employee.ID))
	})
}

// Two concurrent redemptions of a single-use link must resolve to exactly one
// success; the loser observes a terminal link error.
func TestDownloadLinkRepository_ConcurrentRedeem(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	er := repo.NewEmployeeRepository(conn)
	dr := repo.NewDownloadLinkRepository(conn)
	employee := createEmployee(ctx, t, er, "race@example.com")

	now := time.Now()
	link := model.DownloadLink{
		ID:         uuid.New(),
		Token:      "race-token",
		Target:     model.LinkTarget{Kind: model.TargetDocument, ID: uuid.New()},
		EmployeeID: employee.ID,
		CompanyID:  employee.CompanyID,
		ExpiresAt:  now.Add(time.Hour),
		MaxUses:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = dr.Create(ctx, link)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = dr.Redeem(ctx, link.Token, time.Now())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	require.Equal(t, 1, succeeded)
}
