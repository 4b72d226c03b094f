/**
 * Copyright 2025-present Gooddeeds Technologies, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// User queries
	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = ?`

	// Bank detail queries
	queryInsertBankDetail = `
		INSERT INTO bank_details (id, user_id, bank_code, bank_name, account_name, account_number)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetBankDetailById = `
		SELECT id, user_id, bank_code, bank_name, account_name, account_number, created_at
		FROM bank_details
		WHERE id = ?`

	queryGetBankDetailByUserId = `
		SELECT id, user_id, bank_code, bank_name, account_name, account_number, created_at
		FROM bank_details
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 1`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, direction, asset, network, amount, converted_amount, exchange_rate,
			quote_id, transfer_id, address, bank_id, status, exchange_status, metadata, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', 'PENDING', ?, ?)`

	queryGetTransactionByTransferId = `
		SELECT id, user_id, direction, asset, network, amount, converted_amount, exchange_rate,
		       quote_id, transfer_id, address, bank_id, status, exchange_status, metadata,
		       expires_at, confirmed_at, created_at, updated_at
		FROM transactions
		WHERE transfer_id = ?`

	queryListUserTransactions = `
		SELECT id, user_id, direction, asset, network, amount, converted_amount, exchange_rate,
		       quote_id, transfer_id, address, bank_id, status, exchange_status, metadata,
		       expires_at, confirmed_at, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryListOpenTransactions = `
		SELECT id, user_id, direction, asset, network, amount, converted_amount, exchange_rate,
		       quote_id, transfer_id, address, bank_id, status, exchange_status, metadata,
		       expires_at, confirmed_at, created_at, updated_at
		FROM transactions
		WHERE status IN ('PENDING', 'PROCESSING')
		ORDER BY created_at`

	// Conditional status transitions. Each statement both moves the status and
	// guards against regressing from a terminal state; callers inspect rows
	// affected to learn whether they won the transition.
	queryMarkProcessing = `
		UPDATE transactions
		SET status = 'PROCESSING', metadata = COALESCE(NULLIF(?, ''), metadata), updated_at = CURRENT_TIMESTAMP
		WHERE transfer_id = ? AND status = 'PENDING'`

	queryClaimSettlement = `
		UPDATE transactions
		SET status = 'SUCCESSFUL', confirmed_at = CURRENT_TIMESTAMP,
		    metadata = COALESCE(NULLIF(?, ''), metadata), updated_at = CURRENT_TIMESTAMP
		WHERE transfer_id = ? AND status NOT IN ('SUCCESSFUL', 'FAILED', 'CANCELLED')`

	queryMarkCancelled = `
		UPDATE transactions
		SET status = 'CANCELLED', metadata = COALESCE(NULLIF(?, ''), metadata), updated_at = CURRENT_TIMESTAMP
		WHERE transfer_id = ? AND status NOT IN ('SUCCESSFUL', 'FAILED', 'CANCELLED')`

	queryCancelIfPending = `
		UPDATE transactions
		SET status = 'CANCELLED', metadata = COALESCE(NULLIF(?, ''), metadata), updated_at = CURRENT_TIMESTAMP
		WHERE transfer_id = ? AND status = 'PENDING'`

	querySetStatus = `
		UPDATE transactions
		SET status = ?, metadata = COALESCE(NULLIF(?, ''), metadata), updated_at = CURRENT_TIMESTAMP
		WHERE transfer_id = ?`

	querySetExchangeStatus = `
		UPDATE transactions
		SET exchange_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE transfer_id = ?`

	// Ledger queries
	queryGetLastLedgerBalance = `
		SELECT running_balance
		FROM ledger_entries
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`

	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (id, owner_id, type, description, amount, running_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryListLedgerEntries = `
		SELECT id, owner_id, type, description, amount, running_balance, created_at
		FROM ledger_entries
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`
)
