package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sahilchouksey/prof-ratings/config"
	"go.uber.org/zap"
)

// PostgreSQLStore is the raw SQL DataStore on lib/pq
type PostgreSQLStore struct {
	db  *sql.DB
	log *zap.Logger
}

func Start(getEnv *config.EnviornmentVariable, log *zap.Logger) (*PostgreSQLStore, error) {
	connectStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME, getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		log.Error("unable to start PostgreSQL database", zap.Error(err))
		return nil, err
	}

	log.Info("connected to PostgreSQL database", zap.String("driver", "pq"))
	return &PostgreSQLStore{
		db:  db,
		log: log,
	}, nil
}

func (s *PostgreSQLStore) Init() error {
	s.log.Info("initializing PostgreSQL database")
	return s.Initialize()
}

func (s *PostgreSQLStore) Close() error {
	s.log.Info("closing PostgreSQL database")
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
