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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"
	apperrors "github.com/gooddeedstech/crypt2p-main-service-sub000/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.String("user_id", userId))

	var user models.User
	err := s.db.QueryRowContext(ctx, queryGetUserById, userId).Scan(
		&user.Id, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}

	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, queryGetUserByEmail, email).Scan(
		&user.Id, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, email)
		}
		zap.L().Error("Failed to query user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by email: %w", err)
	}

	return &user, nil
}

func (s *Service) CreateUser(ctx context.Context, userId, name, email string) (*models.User, error) {
	zap.L().Info("Creating user", zap.String("id", userId), zap.String("name", name), zap.String("email", email))

	result, err := s.db.ExecContext(ctx, queryInsertUser, userId, name, email)
	if err != nil {
		zap.L().Error("Failed to insert user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("user with email %s already exists", email)
	}

	return s.GetUserByEmail(ctx, email)
}

// CreateBankDetail links a Naira bank account to a user.
func (s *Service) CreateBankDetail(ctx context.Context, params store.CreateBankDetailParams) (*models.BankDetail, error) {
	if params.UserId == "" || params.BankCode == "" || params.AccountNumber == "" {
		return nil, fmt.Errorf("%w: user_id, bank_code and account_number are required", apperrors.ErrValidation)
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertBankDetail,
		id, params.UserId, params.BankCode, params.BankName, params.AccountName, params.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("unable to insert bank detail: %w", err)
	}

	zap.L().Info("Bank detail linked",
		zap.String("bank_id", id),
		zap.String("user_id", params.UserId),
		zap.String("bank_code", params.BankCode))

	return s.getBankDetail(ctx, queryGetBankDetailById, id)
}

// GetBankDetailByUserId returns the user's most recently linked bank account.
func (s *Service) GetBankDetailByUserId(ctx context.Context, userId string) (*models.BankDetail, error) {
	return s.getBankDetail(ctx, queryGetBankDetailByUserId, userId)
}

func (s *Service) getBankDetail(ctx context.Context, query, key string) (*models.BankDetail, error) {
	var detail models.BankDetail
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&detail.Id, &detail.UserId, &detail.BankCode, &detail.BankName,
		&detail.AccountName, &detail.AccountNumber, &detail.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrBankDetailNotFound, key)
		}
		return nil, fmt.Errorf("unable to query bank detail: %w", err)
	}
	return &detail, nil
}
