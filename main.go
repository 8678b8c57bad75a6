package main

import (
	"log"

	"github.com/blurmagic/backend/config"
	"github.com/blurmagic/backend/handler"
	"github.com/blurmagic/backend/model"
	"github.com/blurmagic/backend/repository"
	"github.com/blurmagic/backend/router"
	"github.com/blurmagic/backend/service"
	"github.com/blurmagic/backend/trongrid"
	"github.com/ethereum/go-ethereum/ethclient"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config err: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("open db err: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("migrate err: %v", err)
	}

	bscClient, err := ethclient.Dial(cfg.BSCRPCURL)
	if err != nil {
		log.Fatalf("dial bsc rpc err: %v", err)
	}
	bep20, err := service.NewBep20Verifier(bscClient, cfg.BSCUSDTContract)
	if err != nil {
		log.Fatalf("bep20 verifier err: %v", err)
	}
	tronClient := trongrid.NewClient(cfg.TronFullHost, cfg.TronAPIKey)
	trc20 := service.NewTrc20Verifier(tronClient, cfg.TronUSDTContract)

	users := repository.NewUserRepository(db)
	payments := repository.NewPaymentRepository(db)
	ledger := repository.NewLedgerRepository(db)

	settlement := service.NewSettlementService(db)
	wallet := service.NewWalletService(users, cfg.TronKeyEncryptionSecret)
	claims := service.NewClaimService(users, settlement, trc20, bep20,
		cfg.MerchantBSCAddress, cfg.PriceUSDT, cfg.MonthlyCredits, cfg.PeriodDays)
	entitlements := service.NewEntitlementService(db, users)

	paymentHandler := handler.NewPaymentHandler(wallet, claims, payments, cfg.PriceUSDT, cfg.MonthlyCredits)
	entitlementHandler := handler.NewEntitlementHandler(entitlements, ledger)

	r := router.SetupRouter(cfg, paymentHandler, entitlementHandler)

	log.Printf("blurmagic backend listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server err: %v", err)
	}
}
