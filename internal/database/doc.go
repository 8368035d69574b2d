// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling and simple in-process migrations.
// Repositories implement domain interfaces: BotRepository, UserRepository.
package database
