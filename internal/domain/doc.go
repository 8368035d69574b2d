// Package domain contains the core types and interfaces of the bot
// directory: listings, users, repositories, and the upvote cooldown
// contract. It has no dependencies on transport or storage packages.
package domain
