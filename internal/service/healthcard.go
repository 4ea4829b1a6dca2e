package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"medicart/internal/model"
)

var ErrHealthCardNotFound = errors.New("health card not found")

// HealthCardService stores printable health card records. Rendering (QR, PDF)
// happens client-side; the service owns the data and the card number.
type HealthCardService struct {
	db *sql.DB
}

func NewHealthCardService(db *sql.DB) *HealthCardService {
	return &HealthCardService{db: db}
}

// CreateOrUpdate upserts the card for a user. A new card gets a generated
// number, issue date, and one year of validity; updates keep all three.
func (s *HealthCardService) CreateOrUpdate(ctx context.Context, card *model.HealthCard) (*model.HealthCard, error) {
	existing, err := s.Get(ctx, card.UserID)
	if err != nil && !errors.Is(err, ErrHealthCardNotFound) {
		return nil, err
	}

	if existing != nil {
		card.ID = existing.ID
		card.CardNumber = existing.CardNumber
		card.IssueDate = existing.IssueDate
		card.ValidUntil = existing.ValidUntil

		_, err = s.db.ExecContext(ctx, `
			UPDATE health_cards SET
				name = $1, id_card = $2, phone = $3, email = $4,
				date_of_birth = $5, gender = $6, address = $7,
				blood_group = $8, organization_name = $9, employee_id = $10,
				emergency_name = $11, emergency_phone = $12,
				medical_conditions = $13, allergies = $14,
				updated_at = NOW()
			WHERE user_id = $15
		`,
			card.Name, card.IDCard, card.Phone, card.Email,
			card.DateOfBirth, card.Gender, card.Address,
			card.BloodGroup, card.OrganizationName, card.EmployeeID,
			card.EmergencyContact.Name, card.EmergencyContact.Phone,
			card.MedicalConditions, card.Allergies,
			card.UserID,
		)
		if err != nil {
			return nil, fmt.Errorf("update health card: %w", err)
		}
		return s.Get(ctx, card.UserID)
	}

	number, err := generateCardNumber()
	if err != nil {
		return nil, fmt.Errorf("generate card number: %w", err)
	}
	issued := time.Now()

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO health_cards (
			user_id, card_number, name, id_card, phone, email,
			date_of_birth, gender, address,
			blood_group, organization_name, employee_id,
			emergency_name, emergency_phone, medical_conditions, allergies,
			issue_date, valid_until
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, issue_date, valid_until, created_at, updated_at
	`,
		card.UserID, number, card.Name, card.IDCard, card.Phone, card.Email,
		card.DateOfBirth, card.Gender, card.Address,
		card.BloodGroup, card.OrganizationName, card.EmployeeID,
		card.EmergencyContact.Name, card.EmergencyContact.Phone,
		card.MedicalConditions, card.Allergies,
		issued, issued.AddDate(1, 0, 0),
	).Scan(&card.ID, &card.IssueDate, &card.ValidUntil, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert health card: %w", err)
	}

	card.CardNumber = number
	return card, nil
}

func (s *HealthCardService) Get(ctx context.Context, userID string) (*model.HealthCard, error) {
	var card model.HealthCard
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, card_number, name, id_card, phone, email,
		       date_of_birth, gender, address,
		       blood_group, organization_name, employee_id,
		       emergency_name, emergency_phone, medical_conditions, allergies,
		       issue_date, valid_until, created_at, updated_at
		FROM health_cards WHERE user_id = $1
	`, userID).Scan(
		&card.ID, &card.UserID, &card.CardNumber, &card.Name, &card.IDCard,
		&card.Phone, &card.Email, &card.DateOfBirth, &card.Gender, &card.Address,
		&card.BloodGroup, &card.OrganizationName, &card.EmployeeID,
		&card.EmergencyContact.Name, &card.EmergencyContact.Phone,
		&card.MedicalConditions, &card.Allergies,
		&card.IssueDate, &card.ValidUntil, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHealthCardNotFound
		}
		return nil, fmt.Errorf("get health card: %w", err)
	}
	return &card, nil
}

// generateCardNumber builds numbers like MEDI-56789012-0042: a fixed prefix,
// the trailing digits of the current unix millisecond clock, and a random
// 4-digit suffix.
func generateCardNumber() (string, error) {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MEDI-%s-%04d", ts, n.Int64()), nil
}
