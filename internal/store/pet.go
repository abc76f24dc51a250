package store

import (
	"context"

	"vetclinic-api/internal/model"
)

func (s *Store) CreatePet(ctx context.Context, p *model.Pet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pets (id, owner_id, name, species, breed, sex, color, birth_date, photo_url)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.OwnerID, p.Name, p.Species, p.Breed, p.Sex, p.Color, p.BirthDate, p.PhotoURL,
	)
	return err
}

func (s *Store) PetByID(ctx context.Context, id string) (*model.Pet, error) {
	p := &model.Pet{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, species, COALESCE(breed,''), COALESCE(sex,''),
		        COALESCE(color,''), birth_date, COALESCE(photo_url,''), created_at
		 FROM pets WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Sex,
		&p.Color, &p.BirthDate, &p.PhotoURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPetsByOwner(ctx context.Context, ownerID string) ([]model.Pet, error) {
	return s.listPets(ctx,
		`SELECT id, owner_id, name, species, COALESCE(breed,''), COALESCE(sex,''),
		        COALESCE(color,''), birth_date, COALESCE(photo_url,''), created_at
		 FROM pets WHERE owner_id = $1 ORDER BY name`, ownerID)
}

func (s *Store) ListPets(ctx context.Context) ([]model.Pet, error) {
	return s.listPets(ctx,
		`SELECT id, owner_id, name, species, COALESCE(breed,''), COALESCE(sex,''),
		        COALESCE(color,''), birth_date, COALESCE(photo_url,''), created_at
		 FROM pets ORDER BY name`)
}

func (s *Store) listPets(ctx context.Context, q string, args ...any) ([]model.Pet, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Pet
	for rows.Next() {
		var p model.Pet
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &p.Sex,
			&p.Color, &p.BirthDate, &p.PhotoURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePet(ctx context.Context, p *model.Pet) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pets SET name=$1, species=$2, breed=$3, sex=$4, color=$5, birth_date=$6, photo_url=$7
		 WHERE id=$8 AND owner_id=$9`,
		p.Name, p.Species, p.Breed, p.Sex, p.Color, p.BirthDate, p.PhotoURL, p.ID, p.OwnerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePet(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM pets WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
