package server

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/Mohsinsiddi/monsend/internal/frame"
	"github.com/Mohsinsiddi/monsend/internal/history"
	"github.com/Mohsinsiddi/monsend/internal/refresh"
	"github.com/Mohsinsiddi/monsend/internal/token"
	"github.com/Mohsinsiddi/monsend/internal/tracker"
)

func requireAddress(c *gin.Context) {
	if !common.IsHexAddress(c.Param("address")) {
		fail(c, http.StatusBadRequest, "invalid address")
		return
	}
	c.Next()
}

func (s *Server) balance(c *gin.Context) {
	addr := c.Param("address")
	tk, err := refresh.Fetch(c.Request.Context(), s.Cache, refresh.NewKey(addr, refresh.KindBalance),
		func(ctx context.Context) (token.Token, error) { return s.Tokens.Balance(ctx, addr) })
	if err != nil {
		s.Logger.Debug("balance", "address", addr, "err", err)
		fail(c, http.StatusBadGateway, "Failed to fetch balance")
		return
	}
	ok(c, "", tk)
}

func (s *Server) tokens(c *gin.Context) {
	addr := c.Param("address")
	list, _ := refresh.Fetch(c.Request.Context(), s.Cache, refresh.NewKey(addr, refresh.KindTokens),
		func(ctx context.Context) ([]token.Token, error) { return s.Tokens.Tokens(ctx, addr), nil })
	ok(c, "", list)
}

func (s *Server) nfts(c *gin.Context) {
	addr := c.Param("address")
	list, _ := refresh.Fetch(c.Request.Context(), s.Cache, refresh.NewKey(addr, refresh.KindNFTs),
		func(ctx context.Context) ([]token.Collection, error) { return s.Tokens.NFTs(ctx, addr), nil })
	ok(c, "", list)
}

// transactions merges a fresh block scan into the stored list. When the scan
// fails the stored list is returned with the error as the message.
func (s *Server) transactions(c *gin.Context) {
	addr := c.Param("address")
	ctx := c.Request.Context()

	list, err := refresh.Fetch(ctx, s.Cache, refresh.NewKey(addr, refresh.KindHistory),
		func(ctx context.Context) ([]history.Record, error) {
			observed, err := s.Scanner.Scan(ctx, addr)
			if err != nil {
				return nil, err
			}
			return s.Book.Load(ctx, addr, observed)
		})
	if err == nil {
		ok(c, "", list)
		return
	}

	s.Logger.Debug("history scan", "address", addr, "err", err)
	stored, lerr := s.Book.List(ctx, addr)
	if lerr != nil {
		fail(c, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	ok(c, "showing stored transactions only: "+err.Error(), stored)
}

type txStatus struct {
	Hash        string          `json:"hash"`
	Status      history.Status  `json:"status"`
	BlockNumber *uint64         `json:"blockNumber"`
	ExplorerURL string          `json:"explorerUrl"`
	Record      *history.Record `json:"record,omitempty"`
}

// transactionStatus answers from the owner's stored record when ?from= is
// given and known, otherwise from the chain receipt.
func (s *Server) transactionStatus(c *gin.Context) {
	hash := c.Param("hash")
	if !strings.HasPrefix(hash, "0x") || len(hash) != 66 {
		fail(c, http.StatusBadRequest, "invalid transaction hash")
		return
	}
	ctx := c.Request.Context()
	out := txStatus{Hash: hash, Status: history.StatusPending, ExplorerURL: s.Network.TxURL(hash)}

	from := c.Query("from")
	if from != "" && !common.IsHexAddress(from) {
		fail(c, http.StatusBadRequest, "invalid from address")
		return
	}
	if from != "" && s.Book != nil {
		rec, found, err := s.Book.Get(ctx, from, hash)
		if err != nil {
			fail(c, http.StatusInternalServerError, "failed to read history")
			return
		}
		if found && rec.Status.Terminal() {
			out.Status, out.BlockNumber, out.Record = rec.Status, rec.BlockNumber, &rec
			ok(c, "", out)
			return
		}
	}

	receipt, err := s.Receipts.TransactionReceipt(ctx, hash)
	if err != nil {
		fail(c, http.StatusBadGateway, "failed to fetch receipt: "+err.Error())
		return
	}
	if receipt != nil {
		bn := receipt.BlockNumber
		out.BlockNumber = &bn
		out.Status = history.StatusFailed
		if receipt.Succeeded() {
			out.Status = history.StatusConfirmed
		}
	}
	ok(c, "", out)
}

type trackRequest struct {
	Hash         string `json:"hash" binding:"required"`
	From         string `json:"from" binding:"required"`
	To           string `json:"to"`
	Value        string `json:"value"` // base units
	TokenSymbol  string `json:"tokenSymbol"`
	TokenAddress string `json:"tokenAddress"`
	FID          int64  `json:"fid"`
}

// trackTransaction records a hash the client just submitted and follows it
// in the background. Each transition drops the cached data of both parties;
// with fid set the user is notified once it settles.
func (s *Server) trackTransaction(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "hash and from are required")
		return
	}
	if !strings.HasPrefix(req.Hash, "0x") || len(req.Hash) != 66 {
		fail(c, http.StatusBadRequest, "invalid transaction hash")
		return
	}
	if !common.IsHexAddress(req.From) || (req.To != "" && !common.IsHexAddress(req.To)) {
		fail(c, http.StatusBadRequest, "invalid address")
		return
	}
	value := new(big.Int)
	if req.Value != "" {
		if _, ok := value.SetString(req.Value, 10); !ok || value.Sign() < 0 {
			fail(c, http.StatusBadRequest, "invalid value")
			return
		}
	}
	if s.Tracker == nil {
		fail(c, http.StatusNotImplemented, "transaction tracking is not enabled")
		return
	}

	sub := tracker.Submission{
		Hash:         req.Hash,
		From:         req.From,
		To:           req.To,
		Value:        value,
		TokenSymbol:  req.TokenSymbol,
		TokenAddress: req.TokenAddress,
	}
	s.tracking.Add(1)
	go func() {
		defer s.tracking.Done()
		rec, err := s.Tracker.Track(s.bg, sub)
		if err != nil {
			s.Logger.Warn("tracking stopped", "hash", sub.Hash, "err", err)
			return
		}
		s.notifySettled(req.FID, rec)
	}()

	c.JSON(http.StatusAccepted, Response{Status: "ok", Data: txStatus{
		Hash:        req.Hash,
		Status:      history.StatusPending,
		ExplorerURL: s.Network.TxURL(req.Hash),
	}})
}

func (s *Server) notifySettled(fid int64, rec history.Record) {
	if fid <= 0 || s.Notifier == nil || !rec.Status.Terminal() {
		return
	}
	title := "Transaction confirmed"
	if rec.Status == history.StatusFailed {
		title = "Transaction failed"
	}
	msg := frame.Notification{Title: title, Body: "Transaction " + rec.Hash[:10] + "… on " + s.Network.Name, TargetURL: s.Network.TxURL(rec.Hash)}
	if err := s.Notifier.SendToUser(s.bg, fid, msg); err != nil {
		s.Logger.Debug("settle notification not sent", "fid", fid, "err", err)
	}
}

type verifyRequest struct {
	Owner   string `json:"owner" binding:"required"`
	Address string `json:"address" binding:"required"`
}

func (s *Server) verifyToken(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "owner and address are required")
		return
	}
	if !common.IsHexAddress(req.Owner) {
		fail(c, http.StatusBadRequest, "invalid owner address")
		return
	}

	tk, err := s.Tokens.Verify(c.Request.Context(), req.Owner, req.Address)
	switch {
	case err == nil:
		ok(c, "", tk)
	case errors.Is(err, token.ErrZeroBalance):
		ok(c, "You have zero balance of this token", tk)
	case errors.Is(err, token.ErrInvalidToken):
		fail(c, http.StatusBadRequest, "Invalid token address")
	default:
		fail(c, http.StatusUnprocessableEntity, "Failed to verify token. Make sure it's a valid ERC-20 token.")
	}
}
