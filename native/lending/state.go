package lending

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"openchain/crypto"
	"openchain/storage"
)

// engineState is the persistence surface the engine mutates. Lookups return
// (nil, nil) when the record does not exist so callers can distinguish absence
// from storage failure.
type engineState interface {
	GetPool() (*Pool, error)
	PutPool(pool *Pool) error
	GetAsset(mint crypto.Address) (*AssetInfo, error)
	CreateAsset(asset *AssetInfo) error
	PutAsset(asset *AssetInfo) error
	GetPosition(owner, mint crypto.Address) (*UserPosition, error)
	PutPosition(position *UserPosition) error
}

var (
	poolKey        = []byte("lending/pool")
	assetPrefix    = []byte("lending/asset/")
	positionPrefix = []byte("lending/position/")
)

func assetKey(mint crypto.Address) []byte {
	buf := make([]byte, 0, len(assetPrefix)+20)
	buf = append(buf, assetPrefix...)
	buf = append(buf, mint.Bytes()...)
	return buf
}

func positionKey(owner, mint crypto.Address) []byte {
	buf := make([]byte, 0, len(positionPrefix)+40)
	buf = append(buf, positionPrefix...)
	buf = append(buf, owner.Bytes()...)
	buf = append(buf, mint.Bytes()...)
	return buf
}

// Stored record shapes. Addresses collapse to their raw payload so the
// encoding is stable regardless of the human-readable prefix, and the signed
// timestamp is stored as its unsigned bit pattern because RLP has no signed
// integer form.
type storedPool struct {
	Admin       [20]byte
	Bridge      [20]byte
	Paused      bool
	TotalAssets uint32
}

type storedAsset struct {
	Mint                 [20]byte
	PriceFeed            [20]byte
	Decimals             uint8
	LTV                  uint64
	LiquidationThreshold uint64
	Active               bool
	CanBeCollateral      bool
	CanBeBorrowed        bool
	TotalDeposits        uint64
	TotalBorrows         uint64
}

type storedPosition struct {
	Owner               [20]byte
	Mint                [20]byte
	CollateralBalance   uint64
	BorrowBalance       uint64
	CollateralValueUSD  uint64
	BorrowValueUSD      uint64
	HealthFactor        uint64
	LastActionTimestamp uint64
}

func addressPayload(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}

// Store persists lending records in the shared key-value database.
type Store struct {
	db storage.Database
}

// NewStore constructs a store bound to the provided database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func (s *Store) GetPool() (*Pool, error) {
	raw, err := s.db.Get(poolKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lending: load pool: %w", err)
	}
	var rec storedPool
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("lending: decode pool: %w", err)
	}
	return &Pool{
		Admin:       crypto.NewAddress(crypto.AccountPrefix, rec.Admin[:]),
		Bridge:      crypto.NewAddress(crypto.AccountPrefix, rec.Bridge[:]),
		Paused:      rec.Paused,
		TotalAssets: rec.TotalAssets,
	}, nil
}

func (s *Store) PutPool(pool *Pool) error {
	if pool == nil {
		return fmt.Errorf("lending: nil pool")
	}
	rec := storedPool{
		Admin:       addressPayload(pool.Admin),
		Bridge:      addressPayload(pool.Bridge),
		Paused:      pool.Paused,
		TotalAssets: pool.TotalAssets,
	}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("lending: encode pool: %w", err)
	}
	if err := s.db.Put(poolKey, encoded); err != nil {
		return fmt.Errorf("lending: persist pool: %w", err)
	}
	return nil
}

func (s *Store) GetAsset(mint crypto.Address) (*AssetInfo, error) {
	raw, err := s.db.Get(assetKey(mint))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lending: load asset: %w", err)
	}
	var rec storedAsset
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("lending: decode asset: %w", err)
	}
	return &AssetInfo{
		Mint:                 crypto.NewAddress(crypto.MintPrefix, rec.Mint[:]),
		PriceFeed:            crypto.NewAddress(crypto.AccountPrefix, rec.PriceFeed[:]),
		Decimals:             rec.Decimals,
		LTV:                  rec.LTV,
		LiquidationThreshold: rec.LiquidationThreshold,
		Active:               rec.Active,
		CanBeCollateral:      rec.CanBeCollateral,
		CanBeBorrowed:        rec.CanBeBorrowed,
		TotalDeposits:        rec.TotalDeposits,
		TotalBorrows:         rec.TotalBorrows,
	}, nil
}

// CreateAsset persists a new asset record and fails if the mint is already
// registered. Registration is the only path that may create the key.
func (s *Store) CreateAsset(asset *AssetInfo) error {
	if asset == nil {
		return fmt.Errorf("lending: nil asset")
	}
	existing, err := s.GetAsset(asset.Mint)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s already registered", ErrAssetNotSupported, asset.Mint.String())
	}
	return s.PutAsset(asset)
}

func (s *Store) PutAsset(asset *AssetInfo) error {
	if asset == nil {
		return fmt.Errorf("lending: nil asset")
	}
	rec := storedAsset{
		Mint:                 addressPayload(asset.Mint),
		PriceFeed:            addressPayload(asset.PriceFeed),
		Decimals:             asset.Decimals,
		LTV:                  asset.LTV,
		LiquidationThreshold: asset.LiquidationThreshold,
		Active:               asset.Active,
		CanBeCollateral:      asset.CanBeCollateral,
		CanBeBorrowed:        asset.CanBeBorrowed,
		TotalDeposits:        asset.TotalDeposits,
		TotalBorrows:         asset.TotalBorrows,
	}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("lending: encode asset: %w", err)
	}
	if err := s.db.Put(assetKey(asset.Mint), encoded); err != nil {
		return fmt.Errorf("lending: persist asset: %w", err)
	}
	return nil
}

func (s *Store) GetPosition(owner, mint crypto.Address) (*UserPosition, error) {
	raw, err := s.db.Get(positionKey(owner, mint))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lending: load position: %w", err)
	}
	var rec storedPosition
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("lending: decode position: %w", err)
	}
	return &UserPosition{
		Owner:               crypto.NewAddress(crypto.AccountPrefix, rec.Owner[:]),
		Mint:                crypto.NewAddress(crypto.MintPrefix, rec.Mint[:]),
		CollateralBalance:   rec.CollateralBalance,
		BorrowBalance:       rec.BorrowBalance,
		CollateralValueUSD:  rec.CollateralValueUSD,
		BorrowValueUSD:      rec.BorrowValueUSD,
		HealthFactor:        rec.HealthFactor,
		LastActionTimestamp: int64(rec.LastActionTimestamp),
	}, nil
}

func (s *Store) PutPosition(position *UserPosition) error {
	if position == nil {
		return fmt.Errorf("lending: nil position")
	}
	rec := storedPosition{
		Owner:               addressPayload(position.Owner),
		Mint:                addressPayload(position.Mint),
		CollateralBalance:   position.CollateralBalance,
		BorrowBalance:       position.BorrowBalance,
		CollateralValueUSD:  position.CollateralValueUSD,
		BorrowValueUSD:      position.BorrowValueUSD,
		HealthFactor:        position.HealthFactor,
		LastActionTimestamp: uint64(position.LastActionTimestamp),
	}
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("lending: encode position: %w", err)
	}
	if err := s.db.Put(positionKey(position.Owner, position.Mint), encoded); err != nil {
		return fmt.Errorf("lending: persist position: %w", err)
	}
	return nil
}
