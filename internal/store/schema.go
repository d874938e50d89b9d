package store

// EnsureSchema creates the tables the service needs. Statements are
// idempotent so startup can run them unconditionally.
func (s *Store) EnsureSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS productos (
			id BIGSERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			stock INTEGER NOT NULL DEFAULT 0,
			dose BOOLEAN NOT NULL DEFAULT FALSE,
			unit TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tutores (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS pacientes (
			id BIGSERIAL PRIMARY KEY,
			tutor_id BIGINT NOT NULL REFERENCES tutores(id),
			name TEXT NOT NULL,
			species TEXT NOT NULL DEFAULT '',
			breed TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ventas (
			id BIGSERIAL PRIMARY KEY,
			tutor_id BIGINT REFERENCES tutores(id),
			paciente_id BIGINT REFERENCES pacientes(id),
			tutor_name TEXT NOT NULL DEFAULT '',
			paciente_name TEXT NOT NULL DEFAULT '',
			total DOUBLE PRECISION NOT NULL,
			debt DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS venta_items (
			id BIGSERIAL PRIMARY KEY,
			venta_id BIGINT NOT NULL REFERENCES ventas(id) ON DELETE CASCADE,
			producto_id BIGINT NOT NULL,
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			dose BOOLEAN NOT NULL DEFAULT FALSE,
			original_price DOUBLE PRECISION NOT NULL,
			price_before_discount DOUBLE PRECISION NOT NULL,
			discount_type TEXT NOT NULL DEFAULT 'none',
			discount_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			price DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pagos (
			id BIGSERIAL PRIMARY KEY,
			venta_id BIGINT NOT NULL REFERENCES ventas(id) ON DELETE CASCADE,
			method TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			card_brand TEXT NOT NULL DEFAULT '',
			surcharge_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
			surcharge_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_vuelto BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS historias_clinicas (
			id BIGSERIAL PRIMARY KEY,
			paciente_id BIGINT NOT NULL REFERENCES pacientes(id),
			tutor_id BIGINT NOT NULL REFERENCES tutores(id),
			motivo TEXT NOT NULL,
			diagnosis TEXT NOT NULL DEFAULT '',
			treatment TEXT NOT NULL DEFAULT '',
			media TEXT[] NOT NULL DEFAULT '{}',
			venta_id BIGINT REFERENCES ventas(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS vencimientos (
			id BIGSERIAL PRIMARY KEY,
			venta_id BIGINT,
			producto_id BIGINT NOT NULL,
			producto_name TEXT NOT NULL,
			tutor_id BIGINT NOT NULL,
			paciente_id BIGINT NOT NULL,
			applied_date DATE NOT NULL,
			due_date DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'pendiente',
			supplied BOOLEAN NOT NULL DEFAULT FALSE,
			supplied_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS cupones (
			id BIGSERIAL PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL DEFAULT 'activo',
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS processed_events (
			event_id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
