package usecase

import (
	"context"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 持ち主は会員（user_id）でもゲスト（session_key）でもよい。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	tx           repo.TransactionManager
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		tx:           tx,
	}
}

// price は unit_price_snapshot（追加時点の価格）を返します。
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Name      string `json:"name"`
	Volume    string `json:"volume"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type CartResponse struct {
	Items         []CartItemResponse `json:"items"`
	TotalQuantity int64              `json:"total_quantity"`
	TotalAmount   int64              `json:"total_amount"`
}

type AddCartInput struct {
	VariantID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, owner repo.CartOwner) (CartResponse, error) {
	if err := validateOwner(owner); err != nil {
		return CartResponse{}, err
	}

	cart, err := u.cartRepo.GetOrCreateActive(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一バリアントは数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, owner repo.CartOwner, in AddCartInput) (CartResponse, error) {
	if err := validateOwner(owner); err != nil {
		return CartResponse{}, err
	}
	if in.VariantID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// ACTIVEカート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateActive(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// バリアントと商品のチェック（公開のみ）
	v, err := u.productRepo.FindVariantByID(ctx, in.VariantID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !v.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	p, err := u.productRepo.FindByID(ctx, v.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	// 既存数量を調べて在庫の上限チェック
	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.VariantID == in.VariantID {
			existingQty = it.Quantity
			break
		}
	}

	newQty := existingQty + in.Quantity
	if newQty > v.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	// Upsert（同一バリアントは加算）
	// スナップショットは「追加時点」の値を渡す
	snap := repo.CartItemSnapshot{
		ProductID:   v.ProductID,
		VariantID:   v.ID,
		UnitPrice:   v.Price,
		ProductName: p.Name,
		Volume:      v.Volume,
	}
	if err := u.cartItemRepo.UpsertByCartAndVariant(ctx, cart.ID, snap, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（所有チェック＋在庫チェック）。qty=0は削除と同じ。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, owner repo.CartOwner, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if err := validateOwner(owner); err != nil {
		return CartResponse{}, err
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	//0は削除
	if in.Quantity == 0 {
		return u.DeleteCartItem(ctx, owner, cartItemID)
	}

	owned, err := u.cartItemRepo.IsOwnedBy(ctx, cartItemID, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//バリアントの在庫チェック
	v, err := u.productRepo.FindVariantByID(ctx, item.VariantID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !v.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if in.Quantity > v.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//ACTIVEカートを取得して返却
	cart, err := u.cartRepo.FindActive(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, owner repo.CartOwner, cartItemID int64) (CartResponse, error) {
	if err := validateOwner(owner); err != nil {
		return CartResponse{}, err
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedBy(ctx, cartItemID, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.FindActive(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// ログイン時のゲストカートのマージ。1回だけ効く。
// ゲストカートをMERGEDにしてクリアするので、二重のログインイベントで
// もう一度呼ばれても2回目は対象が無く何もしない。
func (u *CartUsecase) Merge(ctx context.Context, userID int64, sessionKey string) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if sessionKey == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid session key")
	}

	userOwner := repo.OwnerOfUser(userID)

	var userCartID int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		userCart, err := r.Carts().GetOrCreateActive(ctx, userOwner)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		userCartID = userCart.ID

		//ACTIVEなゲストカートが無ければマージ済み（または空）でno-op
		guestCart, err := r.Carts().FindActive(ctx, repo.OwnerOfSession(sessionKey))
		if err == repo.ErrNotFound {
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		guestItems, err := r.CartItems().ListByCartID(ctx, guestCart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//同一バリアントは数量加算、それ以外はコピー
		for _, it := range guestItems {
			snap := repo.CartItemSnapshot{
				ProductID:   it.ProductID,
				VariantID:   it.VariantID,
				UnitPrice:   it.UnitPriceSnapshot,
				ProductName: it.ProductNameSnapshot,
				Volume:      it.VolumeSnapshot,
			}
			if err := r.CartItems().UpsertByCartAndVariant(ctx, userCart.ID, snap, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//ゲストカートを畳む（これが再マージの歯止め）
		if err := r.Carts().UpdateStatus(ctx, guestCart.ID, model.CartStatusMerged); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, guestCart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, userCartID)
}

// cartIDの明細をまとめてCartResponseを作る。
// 合計は必ず明細から計算し直す（キャッシュした合計を持たない）。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var totalAmount int64 = 0
	var totalQuantity int64 = 0

	for _, it := range items {
		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.ProductNameSnapshot,
			Volume:    it.VolumeSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})

		totalAmount += it.UnitPriceSnapshot * it.Quantity
		totalQuantity += it.Quantity
	}

	return CartResponse{Items: respItems, TotalQuantity: totalQuantity, TotalAmount: totalAmount}, nil
}

func validateOwner(owner repo.CartOwner) error {
	if owner.UserID != nil && *owner.UserID > 0 {
		return nil
	}
	if owner.SessionKey != "" {
		return nil
	}
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
