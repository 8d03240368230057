package core

// InteractionClick 是目前唯一的交互类型。
const InteractionClick = "click"

// Interaction 是一条用户交互记录，只追加，不修改。
type Interaction struct {
	UserID      string `json:"user_id"`
	ProductID   string `json:"product_id"`
	Interaction string `json:"interaction"`
}

// NewClick 构建一条点击记录。
func NewClick(userID, productID string) Interaction {
	return Interaction{
		UserID:      userID,
		ProductID:   productID,
		Interaction: InteractionClick,
	}
}
