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

package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/common"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/config"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func validateBankFlags(bankCode, bankName, accountName, accountNumber string) error {
	if bankCode == "" && bankName == "" && accountName == "" && accountNumber == "" {
		return nil
	}
	switch {
	case bankCode == "":
		return fmt.Errorf("--bank-code is required when linking a bank account")
	case bankName == "":
		return fmt.Errorf("--bank-name is required when linking a bank account")
	case accountName == "":
		return fmt.Errorf("--account-name is required when linking a bank account")
	case accountNumber == "":
		return fmt.Errorf("--account-number is required when linking a bank account")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	bankCodeFlag := flag.String("bank-code", "", "Bank code for Naira payouts (optional)")
	bankNameFlag := flag.String("bank-name", "", "Bank name for Naira payouts (optional)")
	accountNameFlag := flag.String("account-name", "", "Account holder name (optional)")
	accountNumberFlag := flag.String("account-number", "", "Account number (optional)")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}

	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}

	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	if err := validateBankFlags(*bankCodeFlag, *bankNameFlag, *accountNameFlag, *accountNumberFlag); err != nil {
		zap.L().Fatal("Invalid bank details", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	userId := uuid.New().String()

	zap.L().Info("Creating user in database",
		zap.String("id", userId),
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	user, err := dbService.CreateUser(ctx, userId, *nameFlag, *emailFlag)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			zap.L().Fatal("User already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Println()
	fmt.Println("USER CREATED")
	fmt.Printf("ID:    %s\n", user.Id)
	fmt.Printf("Name:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Println()

	if *bankCodeFlag == "" {
		fmt.Println("No bank account linked; CRYPTO_TO_CASH exchanges need one.")
		fmt.Println("Re-run with --bank-code, --bank-name, --account-name and --account-number to link.")
		return
	}

	bank, err := dbService.CreateBankDetail(ctx, store.CreateBankDetailParams{
		UserId:        user.Id,
		BankCode:      *bankCodeFlag,
		BankName:      *bankNameFlag,
		AccountName:   *accountNameFlag,
		AccountNumber: *accountNumberFlag,
	})
	if err != nil {
		zap.L().Fatal("Failed to link bank account", zap.Error(err))
	}

	fmt.Println("BANK ACCOUNT LINKED")
	fmt.Printf("Bank:    %s (%s)\n", bank.BankName, bank.BankCode)
	fmt.Printf("Account: %s (%s)\n", bank.AccountNumber, bank.AccountName)
	fmt.Println()

	zap.L().Info("User created successfully",
		zap.String("id", user.Id),
		zap.String("bank_detail_id", bank.Id))
}
