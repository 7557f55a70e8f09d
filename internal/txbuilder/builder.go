package txbuilder

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	xerrors "IntentChain/internal/errors"
	"IntentChain/internal/offering"
	"IntentChain/internal/planner"
	"IntentChain/pkg/logger"
)

// TxPreview is an unsigned description of a single contract call, ready for
// client-side signing. The target address always comes from validated
// configuration, never from user input.
type TxPreview struct {
	ChainID int64  `json:"chainId"`
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
}

// RequestContext carries caller-supplied chain context that some actions need.
type RequestContext struct {
	Account string        `json:"account,omitempty"`
	Vesting *VestingClaim `json:"vesting,omitempty"`
}

// VestingClaim bundles a vesting record with its Merkle proof.
type VestingClaim struct {
	Data        VestingRecord `json:"data"`
	MerkleProof []string      `json:"merkleProof"`
}

// VestingRecord mirrors the on-chain vesting leaf. Amounts are
// decimal-integer strings already denominated in base units.
type VestingRecord struct {
	Beneficiary string `json:"beneficiary"`
	TotalAmount string `json:"totalAmount"`
}

const maxMerkleProofLen = 64

// Config describes the deployment the builder encodes calls against.
// Contract addresses may be left empty; the affected actions then degrade to
// an explanatory warning at build time.
type Config struct {
	ChainID         int64
	DefaultDecimals uint8
	Staking         string
	Governance      string
	Market          string
	Vesting         string
	QuoteToken      string
}

// Builder maps a structured intent plus registry lookups into an ordered
// sequence of transaction previews. Build never returns an error to the
// caller: every internal failure is converted into an empty preview list plus
// a human-readable warning.
type Builder struct {
	cfg        Config
	staking    abi.ABI
	governance abi.ABI
	market     abi.ABI
	erc20      abi.ABI
	vesting    abi.ABI
	audit      *slog.Logger
	log        *slog.Logger
}

// Option configures optional builder behaviour.
type Option func(*Builder)

// WithAuditLogger directs security-policy refusals to the audit stream.
func WithAuditLogger(audit *slog.Logger) Option {
	return func(b *Builder) {
		b.audit = audit
	}
}

// New parses the contract ABIs once and validates the configured addresses.
func New(cfg Config, opts ...Option) (*Builder, error) {
	if cfg.ChainID <= 0 {
		return nil, errors.New("chain id must be positive")
	}
	if cfg.DefaultDecimals == 0 {
		cfg.DefaultDecimals = 18
	}

	b := &Builder{cfg: cfg, log: logger.Named("txbuilder")}
	for name, frag := range map[string]struct {
		src  string
		dest *abi.ABI
	}{
		"staking":    {stakingABI, &b.staking},
		"governance": {governanceABI, &b.governance},
		"market":     {marketABI, &b.market},
		"erc20":      {erc20ABI, &b.erc20},
		"vesting":    {vestingABI, &b.vesting},
	} {
		parsed, err := abi.JSON(strings.NewReader(frag.src))
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", name, err)
		}
		*frag.dest = parsed
	}

	for name, addr := range map[string]string{
		"staking":     cfg.Staking,
		"governance":  cfg.Governance,
		"market":      cfg.Market,
		"vesting":     cfg.Vesting,
		"quote token": cfg.QuoteToken,
	} {
		if strings.TrimSpace(addr) != "" && !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("malformed %s contract address: %s", name, addr)
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Build encodes the ordered transaction previews for the intent. The second
// return value carries warnings; it never carries an error.
func (b *Builder) Build(intent *planner.Intent, reqCtx RequestContext, reg *offering.Registry) ([]TxPreview, []string) {
	if intent == nil {
		return nil, nil
	}

	txs, warnings, err := b.buildAction(intent, reqCtx, reg)
	if err != nil {
		b.log.Warn("transaction construction degraded",
			"code", xerrors.CodeBuildFailure,
			"action", intent.Action,
			"err", err,
		)
		return nil, append(warnings, "Could not construct the transaction: "+err.Error())
	}
	return txs, warnings
}

func (b *Builder) buildAction(intent *planner.Intent, reqCtx RequestContext, reg *offering.Registry) ([]TxPreview, []string, error) {
	switch intent.Action {
	case planner.ActionStake:
		return b.buildStaking("stake", intent.Amount)
	case planner.ActionUnstake:
		return b.buildStaking("unstake", intent.Amount)
	case planner.ActionStakeAll:
		return b.buildStakingAll("stakeAll")
	case planner.ActionUnstakeAll:
		return b.buildStakingAll("unstakeAll")
	case planner.ActionVote:
		return b.buildVote(intent)
	case planner.ActionBuyAsset:
		return b.buildBuy(intent, reg)
	case planner.ActionSellAsset:
		// Normally rewritten to UNSUPPORTED upstream; guard the direct path.
		return nil, []string{"Selling is not supported by the deployed market contract."}, nil
	case planner.ActionClaimVesting:
		return b.buildClaim(reqCtx)
	case planner.ActionQuestion, planner.ActionUnsupported:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown action %s", intent.Action)
	}
}

func (b *Builder) buildStaking(method, amount string) ([]TxPreview, []string, error) {
	if strings.TrimSpace(amount) == "" {
		return nil, []string{"Missing amount."}, nil
	}
	to, err := b.contractAddress("staking", b.cfg.Staking)
	if err != nil {
		return nil, nil, err
	}
	units, err := parseUnits(amount, b.cfg.DefaultDecimals)
	if err != nil {
		return nil, nil, err
	}
	data, err := b.staking.Pack(method, units)
	if err != nil {
		return nil, nil, err
	}
	return []TxPreview{b.preview(to, data)}, nil, nil
}

func (b *Builder) buildStakingAll(method string) ([]TxPreview, []string, error) {
	to, err := b.contractAddress("staking", b.cfg.Staking)
	if err != nil {
		return nil, nil, err
	}
	data, err := b.staking.Pack(method)
	if err != nil {
		return nil, nil, err
	}
	return []TxPreview{b.preview(to, data)}, nil, nil
}

func (b *Builder) buildVote(intent *planner.Intent) ([]TxPreview, []string, error) {
	var warnings []string
	if intent.ProposalID == nil {
		warnings = append(warnings, "Missing proposal id.")
	}
	if intent.Vote == nil {
		warnings = append(warnings, "Missing vote choice (yes or no).")
	}
	if len(warnings) > 0 {
		return nil, warnings, nil
	}

	to, err := b.contractAddress("governance", b.cfg.Governance)
	if err != nil {
		return nil, nil, err
	}
	data, err := b.governance.Pack("vote", new(big.Int).SetUint64(*intent.ProposalID), *intent.Vote)
	if err != nil {
		return nil, nil, err
	}
	return []TxPreview{b.preview(to, data)}, nil, nil
}

// buildBuy produces two ordered previews: an unlimited-allowance approval on
// the quote token followed by the buy call. Ordering is semantically
// required; the approval must come first.
func (b *Builder) buildBuy(intent *planner.Intent, reg *offering.Registry) ([]TxPreview, []string, error) {
	var warnings []string
	if strings.TrimSpace(intent.Amount) == "" {
		warnings = append(warnings, "Missing amount for the purchase.")
	}
	if intent.AssetID == "" {
		warnings = append(warnings, "Missing asset identifier for the purchase.")
	}
	if len(warnings) > 0 {
		return nil, warnings, nil
	}

	market, err := b.contractAddress("market", b.cfg.Market)
	if err != nil {
		return nil, nil, err
	}
	quoteToken, err := b.contractAddress("quote token", b.cfg.QuoteToken)
	if err != nil {
		return nil, nil, err
	}

	decimals := b.cfg.DefaultDecimals
	known := reg.FindByID(intent.AssetID)
	if known != nil && known.Decimals > 0 {
		decimals = known.Decimals
	}

	units, err := parseUnits(intent.Amount, decimals)
	if err != nil {
		return nil, nil, err
	}

	approveData, err := b.erc20.Pack("approve", market, math.MaxBig256)
	if err != nil {
		return nil, nil, err
	}
	buyData, err := b.market.Pack("buy", common.HexToHash(intent.AssetID), units)
	if err != nil {
		return nil, nil, err
	}

	txs := []TxPreview{
		b.preview(quoteToken, approveData),
		b.preview(market, buyData),
	}
	warnings = append(warnings, "Transaction #1 approves the market to spend your quote tokens; it can be skipped if an allowance already exists.")
	if known != nil {
		warnings = append(warnings, fmt.Sprintf("Buying %s %s.", intent.Amount, known.Symbol))
	}
	return txs, warnings, nil
}

func (b *Builder) buildClaim(reqCtx RequestContext) ([]TxPreview, []string, error) {
	account := strings.TrimSpace(reqCtx.Account)
	if account == "" {
		return nil, []string{"Connect your wallet account to claim vesting."}, nil
	}
	if !common.IsHexAddress(account) {
		return nil, []string{"The connected account is not a valid address."}, nil
	}
	if reqCtx.Vesting == nil {
		return nil, []string{"No vesting record was supplied for this account."}, nil
	}

	record := reqCtx.Vesting.Data
	if !common.IsHexAddress(record.Beneficiary) {
		return nil, []string{"The vesting record has a malformed beneficiary address."}, nil
	}

	beneficiary := common.HexToAddress(record.Beneficiary)
	// Security invariant: a claim is never built for a mismatched beneficiary.
	if common.HexToAddress(account) != beneficiary {
		if b.audit != nil {
			b.audit.Warn("vesting claim refused",
				"code", xerrors.CodePolicyRefused,
				"account", common.HexToAddress(account).Hex(),
				"beneficiary", beneficiary.Hex(),
			)
		}
		return nil, []string{"Refusing to build the claim: the connected account does not match the vesting beneficiary."}, nil
	}

	to, err := b.contractAddress("vesting", b.cfg.Vesting)
	if err != nil {
		return nil, nil, err
	}
	total, err := parseIntegerAmount(record.TotalAmount)
	if err != nil {
		return nil, nil, err
	}
	proof, err := parseProof(reqCtx.Vesting.MerkleProof)
	if err != nil {
		return nil, nil, err
	}

	data, err := b.vesting.Pack("claim", struct {
		Beneficiary common.Address
		TotalAmount *big.Int
	}{
		Beneficiary: beneficiary,
		TotalAmount: total,
	}, proof)
	if err != nil {
		return nil, nil, err
	}
	return []TxPreview{b.preview(to, data)}, nil, nil
}

func (b *Builder) contractAddress(name, raw string) (common.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, fmt.Errorf("the %s contract address is not configured", name)
	}
	return common.HexToAddress(raw), nil
}

func (b *Builder) preview(to common.Address, data []byte) TxPreview {
	return TxPreview{
		ChainID: b.cfg.ChainID,
		To:      to.Hex(),
		Data:    "0x" + common.Bytes2Hex(data),
		Value:   "0",
	}
}

func parseProof(entries []string) ([][32]byte, error) {
	if len(entries) > maxMerkleProofLen {
		return nil, fmt.Errorf("merkle proof exceeds %d entries", maxMerkleProofLen)
	}
	proof := make([][32]byte, 0, len(entries))
	for i, entry := range entries {
		trimmed := strings.TrimPrefix(strings.TrimSpace(entry), "0x")
		if len(trimmed) != 64 || !isHexString(trimmed) {
			return nil, fmt.Errorf("merkle proof entry %d is not a 32-byte hex value", i)
		}
		proof = append(proof, common.HexToHash(entry))
	}
	return proof, nil
}

func isHexString(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
