package sync

import "github.com/intake-hub/intake-hub/internal/domain/session"

// NormalizeForChannel converts field shapes to the representation the
// target channel expects. The web form stores a rich selection object
// (selectedBusiness {id,name}); the chat flow stores the bare id plus a
// display name (selectedCategory / selectedCategoryName). Both carry the
// same information, so the conversion is lossless either way.
func NormalizeForChannel(data session.Document, target session.Channel) session.Document {
	out := data.Clone()
	if out == nil {
		return session.Document{}
	}
	switch target {
	case session.ChannelWhatsApp:
		if business, ok := asMap(out["selectedBusiness"]); ok {
			if id := business.GetString("id", ""); id != "" {
				out["selectedCategory"] = id
			}
			if name := business.GetString("name", ""); name != "" {
				out["selectedCategoryName"] = name
			}
			delete(out, "selectedBusiness")
		}
	case session.ChannelWeb:
		if id := out.GetString("selectedCategory", ""); id != "" {
			business := session.Document{"id": id}
			if name := out.GetString("selectedCategoryName", ""); name != "" {
				business["name"] = name
			}
			out["selectedBusiness"] = business
			delete(out, "selectedCategory")
			delete(out, "selectedCategoryName")
		}
	}
	return out
}
