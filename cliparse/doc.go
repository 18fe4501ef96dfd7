// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Every flag falls back to an environment variable and then a default.
CLI flags take precedence over environment variables.

# Storage

	-data        DATA_DIR          data
	-users       USERS_FILE        <data>/users.json
	-scans       SCANS_FILE        <data>/scans.csv
	-ledger      LEDGER_BACKEND    csv (csv, sqlite, postgres)
	-d           DATABASE_URL      required for sqlite and postgres

# Scanning

	-tz          SCAN_TIMEZONE     America/Sao_Paulo
	-upload-tz   UPLOAD_TIMEZONE   same as -tz
	-capture     CAPTURE_SOURCES   camera,upload
	-max-upload  MAX_UPLOAD_BYTES  10MiB

# Sessions and login

	-session-secret  SESSION_SECRET    random per process when unset
	-session-ttl     SESSION_TTL       12h
	-secure-cookies  SECURE_COOKIES    false
	-bcrypt-cost     BCRYPT_COST       10
	                 ADMIN_PASSWORD    env only; seeds the admin account
	-redis           REDIS_ADDR        in-memory limiter when unset
	-login-limit     LOGIN_RATE_LIMIT  5 per minute
	-trust-proxy     TRUST_PROXY       false

# Events and logging

	-amqp        AMQP_URL          events disabled when unset
	-queue       SCAN_QUEUE        scan.recorded
	-log-level   LOG_LEVEL         info
	-p           PORT              8501

# Validation

ParseFlags returns an error for an unknown ledger backend, a SQL backend
without DATABASE_URL, an unknown timezone or capture source, and malformed
numbers, durations or booleans.
*/
package cliparse
