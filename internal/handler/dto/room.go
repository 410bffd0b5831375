package dto

// CreateRoomRequest represents the request body for creating a room.
type CreateRoomRequest struct {
	RoomCode      string `json:"room_code"`
	Price         int64  `json:"price"`
	ElectricPrice int64  `json:"electric_price"`
	WaterPrice    int64  `json:"water_price"`
	ExtraFee      int64  `json:"extra_fee"`
}

// UpdateRoomRequest represents the request body for updating room pricing.
type UpdateRoomRequest struct {
	Price         *int64 `json:"price,omitempty"`
	ElectricPrice *int64 `json:"electric_price,omitempty"`
	WaterPrice    *int64 `json:"water_price,omitempty"`
	ExtraFee      *int64 `json:"extra_fee,omitempty"`
}
