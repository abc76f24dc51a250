package store

import (
	"context"

	"github.com/google/uuid"

	"vetclinic-api/internal/model"
)

// RecordForPet returns the pet's clinical record, creating it on first use.
// One record per pet.
func (s *Store) RecordForPet(ctx context.Context, petID string) (*model.ClinicalRecord, error) {
	r := &model.ClinicalRecord{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO clinical_records (id, pet_id) VALUES ($1, $2)
		 ON CONFLICT (pet_id) DO UPDATE SET pet_id = EXCLUDED.pet_id
		 RETURNING id, pet_id, COALESCE(general_notes,''), created_at`,
		uuid.New().String(), petID,
	).Scan(&r.ID, &r.PetID, &r.GeneralNotes, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) UpdateRecordNotes(ctx context.Context, recordID, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clinical_records SET general_notes = $1 WHERE id = $2`, notes, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AddClinicalEntry(ctx context.Context, e *model.ClinicalEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clinical_entries
		   (id, record_id, vet_id, visit_date, reason, diagnosis, treatment,
		    prescriptions, weight, temperature, next_appointment)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.RecordID, e.VetID, e.VisitDate, e.Reason, e.Diagnosis, e.Treatment,
		e.Prescriptions, e.Weight, e.Temperature, e.NextAppointment,
	)
	return err
}

func (s *Store) ListClinicalEntries(ctx context.Context, recordID string) ([]model.ClinicalEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, record_id, vet_id, visit_date, reason, COALESCE(diagnosis,''),
		        COALESCE(treatment,''), COALESCE(prescriptions,''), weight, temperature,
		        next_appointment, created_at
		 FROM clinical_entries WHERE record_id = $1 ORDER BY visit_date DESC`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ClinicalEntry
	for rows.Next() {
		var e model.ClinicalEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.VetID, &e.VisitDate, &e.Reason, &e.Diagnosis,
			&e.Treatment, &e.Prescriptions, &e.Weight, &e.Temperature,
			&e.NextAppointment, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
