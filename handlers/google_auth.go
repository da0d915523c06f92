package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"echonest/database"
	"echonest/models"
	"echonest/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var googleOAuthConfig *oauth2.Config

func init() {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")

	if clientID != "" && clientSecret != "" {
		googleOAuthConfig = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	} else {
		log.Println("Google sign-in not configured - set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type GoogleAuthRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// GetGoogleAuthURL starts the traditional OAuth flow.
func GetGoogleAuthURL(c *gin.Context) {
	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in not configured"})
		return
	}

	state := primitive.NewObjectID().Hex()
	url := googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GoogleOAuthCallback exchanges the authorization code and signs the user in.
func GoogleOAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}

	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in not configured"})
		return
	}

	ctx := c.Request.Context()
	token, err := googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google token exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	client := googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Printf("Failed to fetch Google user info: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user information"})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user information"})
		return
	}

	var googleUser googleUserInfo
	if err := json.Unmarshal(data, &googleUser); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse user information"})
		return
	}

	signInGoogleUser(c, googleUser)
}

// GoogleAuthWithCredential handles a Google Identity Services credential.
func GoogleAuthWithCredential(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, _, err := new(jwt.Parser).ParseUnverified(req.Credential, jwt.MapClaims{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Google credential"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Google credential"})
		return
	}

	googleUser := googleUserInfo{
		ID:      stringClaim(claims, "sub"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}

	if googleUser.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email not provided by Google"})
		return
	}

	signInGoogleUser(c, googleUser)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// signInGoogleUser creates or refreshes the account and mints a session
// token.
func signInGoogleUser(c *gin.Context, googleUser googleUserInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	isNew := false

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"email": googleUser.Email}).Decode(&user)

	if err == mongo.ErrNoDocuments {
		isNew = true
		avatar := googleUser.Picture
		if avatar == "" {
			avatar = fallbackAvatar
		}
		user = models.User{
			ID:           primitive.NewObjectID(),
			Email:        googleUser.Email,
			PasswordHash: nil,
			AuthProvider: "google",
			Name:         googleUser.Name,
			Avatar:       avatar,
			CreatedAt:    time.Now().Unix(),
			LastSeen:     time.Now().Unix(),
		}
		if _, err := database.Users.InsertOne(ctx, user); err != nil {
			log.Printf("Failed to create Google user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user account"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	} else {
		update := bson.M{"$set": bson.M{
			"lastSeen":     time.Now().Unix(),
			"authProvider": "google",
		}}
		if (user.Avatar == "" || user.Avatar == fallbackAvatar) && googleUser.Picture != "" {
			update["$set"].(bson.M)["avatar"] = googleUser.Picture
			user.Avatar = googleUser.Picture
		}
		if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
			log.Printf("Failed to update Google user: %v", err)
		}
	}

	tokenString, err := session.Mint(os.Getenv("JWT_SECRET"), models.Session{
		UserID:    user.ID.Hex(),
		Name:      user.Name,
		AvatarURL: user.Avatar,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     tokenString,
		"userId":    user.ID.Hex(),
		"email":     user.Email,
		"name":      user.Name,
		"avatar":    user.Avatar,
		"isNewUser": isNew,
		"message":   "Authentication successful",
	})
}
